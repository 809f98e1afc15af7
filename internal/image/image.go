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

// Package image loads raw firmware executables and exposes them as the
// little-endian 32-bit word stream the target processor consumes.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/marcinbor85/gohex"
	"k8s.io/klog/v2"
)

// WordSize is the width of a processor word in bytes.
const WordSize = 4

// ErrEmpty is returned when the input contains no data at all.
var ErrEmpty = errors.New("input image is empty")

// Image is a raw executable held in memory for the duration of one
// generation run. It is not modified after loading.
type Image struct {
	path string
	data []byte
}

// Load reads a raw binary executable from path.
//
// A length that is not a multiple of the word size is accepted with a
// warning; the trailing partial word is excluded from Words, WordCount and
// the framed size, but remains part of Bytes and therefore of the digest.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input %q: %w", path, err)
	}
	return New(path, data)
}

// LoadHex reads an Intel HEX executable from path. The records must form a
// single contiguous data segment.
func LoadHex(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading input %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("parsing Intel HEX input %q: %w", path, err)
	}

	segments := mem.GetDataSegments()
	if len(segments) != 1 {
		return nil, fmt.Errorf("input %q: expected a single contiguous segment, got %d", path, len(segments))
	}

	return New(path, segments[0].Data)
}

// New wraps already loaded executable bytes.
func New(path string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("input %q: %w", path, ErrEmpty)
	}
	if len(data)%WordSize != 0 {
		klog.Warningf("Image size (%d bytes) is not a multiple of %d bytes; trailing %d byte(s) are excluded from the word stream", len(data), WordSize, len(data)%WordSize)
	}
	return &Image{path: path, data: data}, nil
}

// Path returns the path the image was loaded from.
func (im *Image) Path() string {
	return im.path
}

// Bytes returns the full raw contents, trailing partial word included.
func (im *Image) Bytes() []byte {
	return im.data
}

// Size returns the raw size in bytes.
func (im *Image) Size() int {
	return len(im.data)
}

// Misaligned reports whether the raw size is not a multiple of the word
// size.
func (im *Image) Misaligned() bool {
	return len(im.data)%WordSize != 0
}

// WordCount returns the number of complete words.
func (im *Image) WordCount() int {
	return len(im.data) / WordSize
}

// Words returns the image as little-endian 32-bit words, regardless of host
// endianness. A trailing partial word is dropped.
func (im *Image) Words() []uint32 {
	words := make([]uint32, 0, im.WordCount())
	for i := 0; i+WordSize <= len(im.data); i += WordSize {
		words = append(words, binary.LittleEndian.Uint32(im.data[i:]))
	}
	return words
}
