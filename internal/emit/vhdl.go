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

package emit

import (
	"fmt"
	"io"
	"time"

	"github.com/transparency-dev/imagegen/internal/image"
	"github.com/transparency-dev/imagegen/internal/secureboot"
)

// secureBootInfoSize is the flash space occupied by the secure-boot info
// constant: the RSA-2048 signature plus the code-size word.
const secureBootInfoSize = secureboot.DefaultSignatureSize + image.WordSize

const vhdlBuiltFormat = "02.01.2006 15:04:05"

func vhdlPreamble(w io.Writer, kind, project, source string, built time.Time) error {
	_, err := fmt.Fprintf(w,
		"-- The NEORV32 RISC-V Processor - github.com/stnolting/neorv32\n"+
			"-- Auto-generated memory initialization image (for internal %s)\n"+
			"-- Source: %s/%s\n"+
			"-- Built: %s\n"+
			"\n"+
			"library ieee;\n"+
			"use ieee.std_logic_1164.all;\n"+
			"\n"+
			"library neorv32;\n"+
			"use neorv32.neorv32_package.all;\n"+
			"\n",
		kind, project, source, built.Format(vhdlBuiltFormat))
	return err
}

func vhdlWords(w io.Writer, words []uint32) error {
	for i, word := range words {
		sep := ","
		if i == len(words)-1 {
			sep = ""
		}
		if _, err := fmt.Fprintf(w, "x\"%08x\"%s\n", word, sep); err != nil {
			return err
		}
	}
	return nil
}

// VHDLApplication writes the application memory initialization package
// (IMEM), without header or secure-boot data.
func VHDLApplication(w io.Writer, im *image.Image, project string, built time.Time) error {
	if err := vhdlPreamble(w, "IMEM", project, im.Path(), built); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w,
		"package neorv32_application_image is\n"+
			"\n"+
			"constant application_init_size_c  : natural := %d; -- bytes\n"+
			"constant application_init_image_c : mem32_t := (\n",
		im.Size()); err != nil {
		return err
	}
	if err := vhdlWords(w, im.Words()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, ");\n\nend neorv32_application_image;\n")
	return err
}

// VHDLBootloader writes the bootloader memory initialization package
// (BOOTROM), including the secure-boot info constant produced by the
// record builder. The reported init size accounts for the flash taken by
// that constant.
func VHDLBootloader(w io.Writer, im *image.Image, rec secureboot.Record, project string, built time.Time) error {
	if err := vhdlPreamble(w, "BOOTROM", project, im.Path(), built); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w,
		"package neorv32_bootloader_image is\n"+
			"\n"+
			"constant bootloader_init_size_c  : natural := %d; -- bytes\n"+
			"constant bootloader_init_image_c : mem32_t := (\n",
		im.Size()+secureBootInfoSize); err != nil {
		return err
	}
	if err := vhdlWords(w, im.Words()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, ");\nconstant bootloader_init_secure_boot_info_c : mem32_t := (\n"); err != nil {
		return err
	}
	for _, word := range rec[:len(rec)-1] {
		if _, err := fmt.Fprintf(w, "x\"%08x\",\n", word); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "x\"%08x\" -- Bootloader code size\n", rec[len(rec)-1]); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, ");\n\nend neorv32_bootloader_image;\n")
	return err
}
