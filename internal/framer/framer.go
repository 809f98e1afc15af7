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

// Package framer produces checksum-framed binary executables for loader
// upload.
//
// The frame is a 12-byte header followed by the payload: a fixed magic word,
// the payload size in bytes and a two's-complement additive checksum, all
// little-endian 32-bit words. The loader recomputes the sum at upload time;
// sum(words) + checksum must be zero mod 2^32.
package framer

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/transparency-dev/imagegen/internal/image"
)

// Magic identifies a framed executable to the loader.
const Magic = 0x4788CAFE

// HeaderSize is the encoded header length in bytes.
const HeaderSize = 12

// Header precedes the payload of a framed executable.
type Header struct {
	Magic    uint32
	Size     uint32
	Checksum uint32
}

// Checksum computes the two's-complement additive checksum over words:
// the negation mod 2^32 of their sum.
func Checksum(words []uint32) uint32 {
	var sum uint32
	for _, w := range words {
		sum += w
	}
	return ^sum + 1
}

// NewHeader builds the frame header for im. Only complete words count
// towards the size and checksum; a trailing partial word is excluded, in
// line with the warning raised when the image was loaded.
func NewHeader(im *image.Image) Header {
	words := im.Words()
	return Header{
		Magic:    Magic,
		Size:     uint32(len(words) * image.WordSize),
		Checksum: Checksum(words),
	}
}

// Encode returns the little-endian 12-byte wire form of h.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Size)
	binary.LittleEndian.PutUint32(buf[8:], h.Checksum)
	return buf
}

// WriteImage writes the framed executable for im to w: header first, then
// the whole-word payload bytes verbatim.
func WriteImage(w io.Writer, im *image.Image) error {
	hdr := NewHeader(im).Encode()
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}

	payload := im.Bytes()[:im.WordCount()*image.WordSize]
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing frame payload: %w", err)
	}

	return nil
}
