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

// The imagegen tool builds firmware images for the NEORV32 RISC-V
// processor from a raw binary executable: checksum-framed binaries for
// loader upload, VHDL memory initialization packages (the bootloader
// variant carrying a signed secure-boot record), and plain re-encodings
// for synthesis and simulation tools.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"k8s.io/klog/v2"

	"github.com/transparency-dev/imagegen/internal/config"
	"github.com/transparency-dev/imagegen/internal/emit"
	"github.com/transparency-dev/imagegen/internal/framer"
	"github.com/transparency-dev/imagegen/internal/image"
	"github.com/transparency-dev/imagegen/internal/manifest"
	"github.com/transparency-dev/imagegen/internal/secureboot"
	"github.com/transparency-dev/imagegen/internal/sha2"
)

// Version is the tool's semantic version, overridable at build time via
// -ldflags "-X main.Version=...".
var Version = "0.4.0"

// Exit codes, one per failure class. Stable so build scripts can tell the
// classes apart.
const (
	exitUsage   = 1
	exitInput   = 2
	exitEmpty   = 3
	exitOutput  = 4
	exitSigning = 5
)

var (
	op              = flag.String("op", "", "Operation: app_bin|app_vhd|bld_vhd|raw_hex|raw_bin|raw_coe|raw_mem|raw_mif|info")
	inputFile       = flag.String("input_file", "", "Raw binary executable to process.")
	outputFile      = flag.String("output_file", "", "File to write the generated image to.")
	project         = flag.String("project", "", "Project name embedded in human-readable headers of generated files.")
	configFile      = flag.String("config_file", "", "Optional TOML configuration file.")
	keyFile         = flag.String("key_file", "", "RSA private key for secure-boot signing (overrides config).")
	signCommand     = flag.String("sign_command", "", "External signing command (overrides config).")
	localSign       = flag.Bool("local_sign", false, "Sign in-process instead of running the external signing command.")
	signatureSize   = flag.Int("signature_size", 0, "Expected signature length in bytes (overrides config).")
	signTimeout     = flag.Duration("sign_timeout", 0, "Signer round-trip timeout (overrides config).")
	hexInput        = flag.Bool("hex_input", false, "Treat the input file as Intel HEX instead of raw binary.")
	manifestFile    = flag.String("manifest_file", "", "Optional file to write a release manifest to.")
	manifestKeyFile = flag.String("manifest_key_file", "", "Note secret key file used to sign the release manifest.")
	printVersion    = flag.Bool("version", false, "Print the tool version and exit.")
)

func exitf(code int, format string, args ...any) {
	klog.Errorf(format, args...)
	klog.Flush()
	os.Exit(code)
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *printVersion {
		fmt.Printf("imagegen %s\n", Version)
		return
	}

	if *op == "" || *inputFile == "" {
		flag.Usage()
		exitf(exitUsage, "Both -op and -input_file are required")
	}

	cfg, err := resolveConfig()
	if err != nil {
		exitf(exitUsage, "%v", err)
	}

	im, err := loadImage(*inputFile)
	switch {
	case errors.Is(err, image.ErrEmpty):
		exitf(exitEmpty, "%v", err)
	case err != nil:
		exitf(exitInput, "%v", err)
	}

	if *op == "info" {
		fmt.Print(describe(im))
		writeManifest(im)
		return
	}

	if *outputFile == "" {
		flag.Usage()
		exitf(exitUsage, "-output_file is required for operation %q", *op)
	}

	now := time.Now()

	var write func(f *os.File) error
	switch *op {
	case "app_bin":
		write = func(f *os.File) error { return framer.WriteImage(f, im) }
	case "app_vhd":
		write = func(f *os.File) error { return emit.VHDLApplication(f, im, cfg.Project, now) }
	case "bld_vhd":
		rec := buildRecordOrDie(cfg, im)
		write = func(f *os.File) error { return emit.VHDLBootloader(f, im, rec, cfg.Project, now) }
	case "raw_hex":
		write = func(f *os.File) error { return emit.Hex(f, im.Words()) }
	case "raw_bin":
		write = func(f *os.File) error { return emit.Bin(f, im.Bytes()) }
	case "raw_coe":
		write = func(f *os.File) error { return emit.COE(f, im.Words()) }
	case "raw_mem":
		write = func(f *os.File) error { return emit.Mem(f, im.Words()) }
	case "raw_mif":
		write = func(f *os.File) error { return emit.MIF(f, im.Words()) }
	default:
		exitf(exitUsage, "Invalid operation %q", *op)
	}

	if err := emit.WriteFile(*outputFile, write); err != nil {
		exitf(exitOutput, "%v", err)
	}
	klog.Infof("Wrote %s image for %q to %q", *op, *inputFile, *outputFile)

	writeManifest(im)
}

func loadImage(path string) (*image.Image, error) {
	if *hexInput {
		return image.LoadHex(path)
	}
	return image.Load(path)
}

// resolveConfig layers flag overrides on top of the config file (or the
// built-in defaults when no file is given).
func resolveConfig() (config.Config, error) {
	cfg := config.Default()

	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return config.Config{}, err
		}
	}

	if *project != "" {
		cfg.Project = *project
	}
	if *signCommand != "" {
		cfg.Signer.Command = *signCommand
		cfg.Signer.Args = nil
	}
	if *keyFile != "" {
		cfg.Signer.KeyFile = *keyFile
	}
	if *localSign {
		cfg.Signer.InProcess = true
	}
	if *signatureSize > 0 {
		cfg.Signer.SignatureSize = *signatureSize
	}
	if *signTimeout > 0 {
		cfg.Signer.Timeout = *signTimeout
	}

	return cfg, nil
}

// buildRecordOrDie assembles the secure-boot record, aborting the whole run
// on any signing failure: a boot image without a valid signature must never
// be emitted.
func buildRecordOrDie(cfg config.Config, im *image.Image) secureboot.Record {
	signer, sigSize, err := newSigner(cfg.Signer)
	if err != nil {
		exitf(exitSigning, "%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Signer.Timeout)
	defer cancel()

	b := &secureboot.Builder{Signer: signer, SignatureSize: sigSize}
	rec, err := b.Build(ctx, im)
	if err != nil {
		exitf(exitSigning, "%v", err)
	}

	return rec
}

func newSigner(cfg config.Signer) (secureboot.Signer, int, error) {
	if cfg.InProcess {
		keyPEM, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, 0, fmt.Errorf("reading signing key %q: %w", cfg.KeyFile, err)
		}
		s, err := secureboot.NewLocalSigner(keyPEM)
		if err != nil {
			return nil, 0, err
		}
		return s, s.SignatureSize(), nil
	}

	args := cfg.Args
	if len(args) == 0 {
		args = []string{"dgst", "-sha256", "-sign", cfg.KeyFile}
	}
	return &secureboot.CommandSigner{Command: cfg.Command, Args: args}, cfg.SignatureSize, nil
}

func writeManifest(im *image.Image) {
	if *manifestFile == "" {
		return
	}

	r, err := manifest.New(im, Version, time.Now())
	if err != nil {
		exitf(exitOutput, "%v", err)
	}

	var body []byte
	if *manifestKeyFile != "" {
		skey, err := os.ReadFile(*manifestKeyFile)
		if err != nil {
			exitf(exitOutput, "Reading manifest key %q: %v", *manifestKeyFile, err)
		}
		if body, err = r.Sign(string(bytes.TrimSpace(skey))); err != nil {
			exitf(exitOutput, "%v", err)
		}
	} else {
		if body, err = r.Marshal(); err != nil {
			exitf(exitOutput, "%v", err)
		}
	}

	if err := emit.WriteFile(*manifestFile, func(f *os.File) error {
		_, err := f.Write(body)
		return err
	}); err != nil {
		exitf(exitOutput, "%v", err)
	}
	klog.Infof("Wrote release manifest to %q", *manifestFile)
}

// describe returns a textual summary of the loaded image.
func describe(im *image.Image) string {
	var info bytes.Buffer

	hdr := framer.NewHeader(im)

	info.WriteString("------------------------------------------------------------ Image ----\n")
	info.WriteString(fmt.Sprintf("Source .................: %s\n", im.Path()))
	info.WriteString(fmt.Sprintf("Size ...................: %d bytes (%d words)\n", im.Size(), im.WordCount()))
	info.WriteString(fmt.Sprintf("Word aligned ...........: %v\n", !im.Misaligned()))
	info.WriteString(fmt.Sprintf("Frame checksum .........: 0x%08x\n", hdr.Checksum))
	info.WriteString(fmt.Sprintf("SHA-256 ................: %s\n", sha2.Sum(im.Bytes())))

	return info.String()
}
