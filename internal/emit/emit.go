// Copyright 2024 The ImageGen authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package emit renders a firmware word stream in the text formats consumed
// by synthesis and simulation tools. All emitters are stateless and
// order-preserving; none of them alters the word values.
package emit

import (
	"fmt"
	"io"
)

// Hex writes one 8-digit hex word per line.
func Hex(w io.Writer, words []uint32) error {
	for _, word := range words {
		if _, err := fmt.Fprintf(w, "%08x\n", word); err != nil {
			return err
		}
	}
	return nil
}

// COE writes a Xilinx coefficient file: radix header, comma-separated
// words, semicolon after the last.
func COE(w io.Writer, words []uint32) error {
	if _, err := fmt.Fprintf(w, "memory_initialization_radix=16;\nmemory_initialization_vector=\n"); err != nil {
		return err
	}
	for i, word := range words {
		sep := ","
		if i == len(words)-1 {
			sep = ";"
		}
		if _, err := fmt.Fprintf(w, "%08x%s\n", word, sep); err != nil {
			return err
		}
	}
	return nil
}

// Mem writes a Verilog simulation memory file with word addresses.
func Mem(w io.Writer, words []uint32) error {
	for i, word := range words {
		if _, err := fmt.Fprintf(w, "@%08x %08x\n", i, word); err != nil {
			return err
		}
	}
	return nil
}

// MIF writes a Quartus memory initialization file.
func MIF(w io.Writer, words []uint32) error {
	if _, err := fmt.Fprintf(w, "DEPTH = %d;\nWIDTH = 32;\nADDRESS_RADIX = HEX;\nDATA_RADIX = HEX;\nCONTENT\nBEGIN\n", len(words)); err != nil {
		return err
	}
	for i, word := range words {
		if _, err := fmt.Fprintf(w, "%08x : %08x;\n", i, word); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "END;\n")
	return err
}

// Bin copies the raw image bytes verbatim.
func Bin(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}
