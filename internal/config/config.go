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

// Package config carries the tool settings that are awkward as flags on
// every invocation, signer wiring in particular. The file is optional;
// every field has a working default and flags override file values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the resolved tool configuration.
type Config struct {
	// Project is the default label embedded in generated file headers.
	Project string
	Signer  Signer
}

// Signer configures how digests get signed for secure-boot records.
type Signer struct {
	// Command is the external signing executable. Ignored when InProcess
	// is set.
	Command string
	// Args are passed to Command; empty means the openssl hash-and-sign
	// invocation built from KeyFile.
	Args []string
	// KeyFile is the PEM private key path.
	KeyFile string
	// InProcess selects in-process RSA signing instead of Command.
	InProcess bool
	// SignatureSize is the expected signature length in bytes.
	SignatureSize int
	// Timeout bounds one signer round trip.
	Timeout time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Signer: Signer{
			Command:       "openssl",
			KeyFile:       "rsa_private.pem",
			SignatureSize: 256,
			Timeout:       30 * time.Second,
		},
	}
}

type fileConfig struct {
	Project string     `toml:"project"`
	Signer  fileSigner `toml:"signer"`
}

type fileSigner struct {
	Command       string   `toml:"command"`
	Args          []string `toml:"args"`
	KeyFile       string   `toml:"key_file"`
	InProcess     bool     `toml:"in_process"`
	SignatureSize int      `toml:"signature_size"`
	Timeout       string   `toml:"timeout"`
}

// Load reads a TOML config file, applying its values on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("loading config %q: %w", path, err)
	}

	if meta.IsDefined("project") {
		cfg.Project = strings.TrimSpace(raw.Project)
	}
	if meta.IsDefined("signer", "command") {
		cfg.Signer.Command = strings.TrimSpace(raw.Signer.Command)
	}
	if meta.IsDefined("signer", "args") {
		cfg.Signer.Args = raw.Signer.Args
	}
	if meta.IsDefined("signer", "key_file") {
		cfg.Signer.KeyFile = strings.TrimSpace(raw.Signer.KeyFile)
	}
	if meta.IsDefined("signer", "in_process") {
		cfg.Signer.InProcess = raw.Signer.InProcess
	}
	if meta.IsDefined("signer", "signature_size") {
		if raw.Signer.SignatureSize <= 0 {
			return Config{}, fmt.Errorf("config %q: signature_size must be positive", path)
		}
		cfg.Signer.SignatureSize = raw.Signer.SignatureSize
	}
	if meta.IsDefined("signer", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Signer.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("config %q: parsing signer timeout: %w", path, err)
		}
		cfg.Signer.Timeout = d
	}

	return cfg, nil
}
