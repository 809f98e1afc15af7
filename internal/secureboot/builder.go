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

// Package secureboot builds the secure-boot info record placed ahead of the
// boot ROM: the signature over the image digest, segmented into 32-bit
// little-endian words, followed by one word holding the code size in words.
// The device-side verifier checks the signature against the recomputed
// digest before handing over control.
package secureboot

import (
	"context"
	"encoding/binary"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/transparency-dev/imagegen/internal/image"
	"github.com/transparency-dev/imagegen/internal/sha2"
)

// DefaultSignatureSize is the signature length in bytes for the supported
// RSA-2048 key size.
const DefaultSignatureSize = 256

// Record is the secure-boot info block as ordered 32-bit words. Its length
// is fixed before any word is emitted: signature bytes / 4 (rounded up)
// plus the trailing code-size word.
type Record []uint32

// Builder produces secure-boot records. The zero value is not usable; a
// Signer must be set.
type Builder struct {
	// Signer produces the signature embedded in the record.
	Signer Signer
	// SignatureSize is the expected signature length in bytes. Zero means
	// DefaultSignatureSize.
	SignatureSize int
}

// Build computes the image digest, obtains its signature and assembles the
// record. Each step is a hard precondition for the next: any signer failure
// or signature length mismatch aborts with no record at all.
//
// The digest words are serialized little-endian for the signing message,
// matching the layout the device re-creates when verifying.
func (b *Builder) Build(ctx context.Context, im *image.Image) (Record, error) {
	digest := sha2.Sum(im.Bytes())
	klog.V(1).Infof("Image digest: %s", digest)

	msg := digest.LittleEndianBytes()
	sig, err := b.Signer.Sign(ctx, msg[:])
	if err != nil {
		return nil, fmt.Errorf("signing image digest: %w", err)
	}

	want := b.SignatureSize
	if want == 0 {
		want = DefaultSignatureSize
	}
	if len(sig) != want {
		return nil, fmt.Errorf("signature is %d bytes, expected %d", len(sig), want)
	}

	rec := make(Record, 0, (len(sig)+image.WordSize-1)/image.WordSize+1)
	for off := 0; off < len(sig); off += image.WordSize {
		// Zero-pad a trailing partial group. Unreachable for the
		// supported signature sizes, which are word multiples.
		var group [image.WordSize]byte
		copy(group[:], sig[off:])
		rec = append(rec, binary.LittleEndian.Uint32(group[:]))
	}
	rec = append(rec, uint32(im.WordCount()))

	return rec, nil
}
