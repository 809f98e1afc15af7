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

package sha2

import (
	"bytes"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSumVectors(t *testing.T) {
	for _, test := range []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "abc",
			in:   "abc",
			want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			name: "two blocks",
			in:   "abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq",
			want: "248d6a61d20638b8e5c026930c3e6039a33ce45964ff2167f6ecedd419db06c1",
		},
		{
			name: "million a",
			in:   strings.Repeat("a", 1000000),
			want: "cdc76e5c9914fb9281a1c7e284d73e67f1809a48a497200e046d39ccc7112cd0",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			if got := Sum([]byte(test.in)).String(); got != test.want {
				t.Errorf("Sum(%q): got %s, want %s", test.name, got, test.want)
			}
		})
	}
}

// TestSumPaddingBoundaries cross-checks against the standard library around
// the one-vs-two padding block cut over at 56 bytes into the final block.
func TestSumPaddingBoundaries(t *testing.T) {
	for _, n := range []int{1, 3, 4, 55, 56, 57, 63, 64, 65, 119, 120, 127, 128, 129, 1000} {
		data := bytes.Repeat([]byte{0xa5}, n)
		got := Sum(data).Bytes()
		want := sha256.Sum256(data)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Sum of %d bytes diverges from crypto/sha256 (-want +got):\n%s", n, diff)
		}
	}
}

func TestSumDeterministic(t *testing.T) {
	data := []byte("the exact same bytes")
	if a, b := Sum(data), Sum(data); a != b {
		t.Errorf("Sum is not deterministic: %s != %s", a, b)
	}
}

// TestSumAvalanche is a sanity check, not a proof: flipping any single byte
// must change the digest.
func TestSumAvalanche(t *testing.T) {
	data := []byte("firmware image contents under test")
	ref := Sum(data)
	for i := range data {
		mutated := bytes.Clone(data)
		mutated[i] ^= 0x01
		if Sum(mutated) == ref {
			t.Errorf("digest unchanged after flipping byte %d", i)
		}
	}
}

func TestDigestSerialization(t *testing.T) {
	d := Sum([]byte("abc"))

	be := d.Bytes()
	le := d.LittleEndianBytes()
	for i := 0; i < 8; i++ {
		for j := 0; j < 4; j++ {
			if be[4*i+j] != le[4*i+3-j] {
				t.Fatalf("word %d: big/little endian serializations are not byte reversals of each other", i)
			}
		}
	}

	if got, want := d.Words()[0], uint32(0xba7816bf); got != want {
		t.Errorf("Words()[0]: got %#x, want %#x", got, want)
	}
}
