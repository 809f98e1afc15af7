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

package main

import (
	"strings"
	"testing"

	"github.com/coreos/go-semver/semver"

	"github.com/transparency-dev/imagegen/internal/config"
	"github.com/transparency-dev/imagegen/internal/image"
	"github.com/transparency-dev/imagegen/internal/secureboot"
)

func TestVersionIsSemver(t *testing.T) {
	if _, err := semver.NewVersion(Version); err != nil {
		t.Errorf("Version %q is not valid semver: %v", Version, err)
	}
}

func TestNewSignerDefaultsToOpenSSL(t *testing.T) {
	cfg := config.Default().Signer
	cfg.KeyFile = "/keys/boot.pem"

	s, sigSize, err := newSigner(cfg)
	if err != nil {
		t.Fatalf("newSigner: %v", err)
	}
	if sigSize != 256 {
		t.Errorf("signature size: got %d, want 256", sigSize)
	}

	cs, ok := s.(*secureboot.CommandSigner)
	if !ok {
		t.Fatalf("signer: got %T, want *secureboot.CommandSigner", s)
	}
	if cs.Command != "openssl" {
		t.Errorf("Command: got %q, want openssl", cs.Command)
	}
	if got, want := strings.Join(cs.Args, " "), "dgst -sha256 -sign /keys/boot.pem"; got != want {
		t.Errorf("Args: got %q, want %q", got, want)
	}
}

func TestNewSignerInProcessMissingKey(t *testing.T) {
	cfg := config.Default().Signer
	cfg.InProcess = true
	cfg.KeyFile = "/does/not/exist.pem"

	if _, _, err := newSigner(cfg); err == nil {
		t.Error("newSigner succeeded with missing key file")
	}
}

func TestDescribe(t *testing.T) {
	im, err := image.New("build/main.bin", []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("image.New: %v", err)
	}

	out := describe(im)
	for _, want := range []string{
		"build/main.bin",
		"8 bytes (2 words)",
		"Word aligned ...........: true",
		"0xfffffffd",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output missing %q:\n%s", want, out)
		}
	}
}
