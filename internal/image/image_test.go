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

package image

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	for _, test := range []struct {
		name           string
		data           []byte
		wantErr        error
		wantWords      []uint32
		wantMisaligned bool
	}{
		{
			name:      "aligned",
			data:      []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00},
			wantWords: []uint32{1, 2},
		},
		{
			name:      "little endian assembly",
			data:      []byte{0xef, 0xbe, 0xad, 0xde},
			wantWords: []uint32{0xdeadbeef},
		},
		{
			name:           "trailing bytes dropped from words",
			data:           []byte{0x01, 0x00, 0x00, 0x00, 0xaa, 0xbb, 0xcc},
			wantWords:      []uint32{1},
			wantMisaligned: true,
		},
		{
			name:    "empty",
			data:    nil,
			wantErr: ErrEmpty,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.bin")
			if err := os.WriteFile(path, test.data, 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			im, err := Load(path)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Load: got error %v, want %v", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			if diff := cmp.Diff(test.wantWords, im.Words()); diff != "" {
				t.Errorf("Words() mismatch (-want +got):\n%s", diff)
			}
			if got, want := im.WordCount(), len(test.wantWords); got != want {
				t.Errorf("WordCount(): got %d, want %d", got, want)
			}
			if got, want := im.Size(), len(test.data); got != want {
				t.Errorf("Size(): got %d, want %d", got, want)
			}
			if got := im.Misaligned(); got != test.wantMisaligned {
				t.Errorf("Misaligned(): got %v, want %v", got, test.wantMisaligned)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.bin")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestLoadHex(t *testing.T) {
	// Two little-endian words, 1 and 2, at address 0.
	const hexImage = ":080000000100000002000000F5\n:00000001FF\n"

	path := filepath.Join(t.TempDir(), "app.hex")
	if err := os.WriteFile(path, []byte(hexImage), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	im, err := LoadHex(path)
	if err != nil {
		t.Fatalf("LoadHex: %v", err)
	}
	if diff := cmp.Diff([]uint32{1, 2}, im.Words()); diff != "" {
		t.Errorf("Words() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadHexInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.hex")
	if err := os.WriteFile(path, []byte("not an intel hex file\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadHex(path); err == nil {
		t.Error("LoadHex of garbage input succeeded")
	}
}
