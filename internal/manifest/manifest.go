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

// Package manifest records the provenance of a generated image: what was
// built, from which source, when, and the digest binding the record to the
// exact bytes. A manifest can be countersigned as a note so that release
// tooling can verify it later.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/coreos/go-semver/semver"
	"golang.org/x/mod/sumdb/note"

	"github.com/transparency-dev/imagegen/internal/image"
	"github.com/transparency-dev/imagegen/internal/sha2"
)

// Release describes one generated firmware image.
type Release struct {
	// Tool identifies the generator.
	Tool string `json:"tool"`
	// ToolVersion is the generator's semantic version.
	ToolVersion string `json:"tool_version"`
	// Source is the input executable path.
	Source string `json:"source"`
	// SizeBytes is the raw executable size.
	SizeBytes int `json:"size_bytes"`
	// SizeWords is the executable size in complete 32-bit words.
	SizeWords int `json:"size_words"`
	// SHA256 is the hex digest over the full raw executable.
	SHA256 string `json:"sha256"`
	// BuildTime is when the image was generated, RFC 3339.
	BuildTime string `json:"build_time"`
}

// New builds the release record for im. toolVersion must be valid semver.
func New(im *image.Image, toolVersion string, built time.Time) (*Release, error) {
	if _, err := semver.NewVersion(toolVersion); err != nil {
		return nil, fmt.Errorf("invalid tool version %q: %w", toolVersion, err)
	}

	return &Release{
		Tool:        "imagegen",
		ToolVersion: toolVersion,
		Source:      im.Path(),
		SizeBytes:   im.Size(),
		SizeWords:   im.WordCount(),
		SHA256:      sha2.Sum(im.Bytes()).String(),
		BuildTime:   built.UTC().Format(time.RFC3339),
	}, nil
}

// Marshal returns the canonical JSON body of r.
func (r *Release) Marshal() ([]byte, error) {
	body, err := json.MarshalIndent(r, "", " ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %v", err)
	}
	return append(body, '\n'), nil
}

// Sign returns r serialized as a note signed with the given note-format
// secret key.
func (r *Release) Sign(secretKey string) ([]byte, error) {
	signer, err := note.NewSigner(secretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest signing key: %v", err)
	}

	body, err := r.Marshal()
	if err != nil {
		return nil, err
	}

	signed, err := note.Sign(&note.Note{Text: string(body)}, signer)
	if err != nil {
		return nil, fmt.Errorf("signing manifest: %v", err)
	}

	return signed, nil
}
