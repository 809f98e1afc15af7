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

// Package sha2 implements the SHA-256 digest used to fingerprint boot
// images.
//
// The implementation is intentionally self-contained so that its output can
// be audited against the device-side verifier, which carries the exact same
// word-oriented algorithm. The digest is kept as eight native 32-bit words;
// callers pick the byte order they need for serialization.
package sha2

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"
)

// BlockSize is the compression block size in bytes.
const BlockSize = 64

// Size is the digest length in bytes.
const Size = 32

// Digest is a SHA-256 digest as eight 32-bit words, in the order defined by
// FIPS 180-4.
type Digest [8]uint32

// initState holds the initial hash value H(0).
var initState = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// k holds the 64 round constants.
var k = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// Sum computes the SHA-256 digest of data. It cannot fail, the empty input
// included.
func Sum(data []byte) Digest {
	h := initState

	var block [BlockSize]byte
	n := len(data)
	off := 0

	for ; off+BlockSize <= n; off += BlockSize {
		copy(block[:], data[off:off+BlockSize])
		compress(&h, &block)
	}

	// Padding: 0x80 marker, zero fill, 64-bit big-endian bit count in the
	// final 8 bytes. If the marker lands at offset >= 56 there is no room
	// for the length and an extra block is needed.
	rem := n - off
	block = [BlockSize]byte{}
	copy(block[:], data[off:])
	block[rem] = 0x80

	if rem >= 56 {
		compress(&h, &block)
		block = [BlockSize]byte{}
	}

	binary.BigEndian.PutUint64(block[56:], uint64(n)<<3)
	compress(&h, &block)

	return Digest(h)
}

// Words returns the digest as native 32-bit words.
func (d Digest) Words() [8]uint32 {
	return d
}

// Bytes returns the conventional big-endian digest octets, e.g. for display
// or comparison against other SHA-256 implementations.
func (d Digest) Bytes() [Size]byte {
	var out [Size]byte
	for i, w := range d {
		binary.BigEndian.PutUint32(out[4*i:], w)
	}
	return out
}

// LittleEndianBytes returns the digest words serialized in little-endian
// order, the layout the target processor reads them in and the message
// handed to the signer.
func (d Digest) LittleEndianBytes() [Size]byte {
	var out [Size]byte
	for i, w := range d {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

// String returns the lowercase hex representation of the digest.
func (d Digest) String() string {
	b := d.Bytes()
	return hex.EncodeToString(b[:])
}

func compress(h *[8]uint32, p *[BlockSize]byte) {
	var w [64]uint32

	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(p[4*i:])
	}
	for i := 16; i < 64; i++ {
		w[i] = ssig1(w[i-2]) + w[i-7] + ssig0(w[i-15]) + w[i-16]
	}

	a, b, c, d := h[0], h[1], h[2], h[3]
	e, f, g, hh := h[4], h[5], h[6], h[7]

	for i := 0; i < 64; i++ {
		t1 := hh + bsig1(e) + ch(e, f, g) + k[i] + w[i]
		t2 := bsig0(a) + maj(a, b, c)
		hh, g, f, e = g, f, e, d+t1
		d, c, b, a = c, b, a, t1+t2
	}

	h[0] += a
	h[1] += b
	h[2] += c
	h[3] += d
	h[4] += e
	h[5] += f
	h[6] += g
	h[7] += hh
}

func ch(x, y, z uint32) uint32  { return (x & y) ^ (^x & z) }
func maj(x, y, z uint32) uint32 { return (x & y) ^ (x & z) ^ (y & z) }

func bsig0(x uint32) uint32 {
	return bits.RotateLeft32(x, -2) ^ bits.RotateLeft32(x, -13) ^ bits.RotateLeft32(x, -22)
}

func bsig1(x uint32) uint32 {
	return bits.RotateLeft32(x, -6) ^ bits.RotateLeft32(x, -11) ^ bits.RotateLeft32(x, -25)
}

func ssig0(x uint32) uint32 {
	return bits.RotateLeft32(x, -7) ^ bits.RotateLeft32(x, -18) ^ (x >> 3)
}

func ssig1(x uint32) uint32 {
	return bits.RotateLeft32(x, -17) ^ bits.RotateLeft32(x, -19) ^ (x >> 10)
}
