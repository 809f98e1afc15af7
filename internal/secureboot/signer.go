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

package secureboot

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os/exec"

	"k8s.io/klog/v2"

	"github.com/transparency-dev/imagegen/internal/sha2"
)

// Signer is the capability used to sign a 32-byte digest message. How the
// signature is produced (local process, service, HSM) is a deployment
// concern; the record builder only relies on this one operation.
type Signer interface {
	// Sign produces a signature over the digest message. It blocks until
	// the signature is available, ctx is done, or signing fails.
	Sign(ctx context.Context, digest []byte) ([]byte, error)
}

// CommandSigner signs by running an external command, handing the digest
// message over stdin and reading the raw signature from stdout. No
// temporary artifacts are created, so nothing sensitive can outlive the
// process on any exit path; cancelling ctx kills the command.
type CommandSigner struct {
	// Command is the signing executable to run.
	Command string
	// Args are passed verbatim to Command.
	Args []string
}

// OpenSSLSigner returns a CommandSigner invoking openssl's hash-and-sign
// over the digest message with the RSA private key in keyFile.
func OpenSSLSigner(keyFile string) *CommandSigner {
	return &CommandSigner{
		Command: "openssl",
		Args:    []string{"dgst", "-sha256", "-sign", keyFile},
	}
}

// Sign implements Signer.
func (s *CommandSigner) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	klog.V(1).Infof("Signing %d byte digest with %q", len(digest), s.Command)

	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Stdin = bytes.NewReader(digest)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("signing command %q: %w", s.Command, ctxErr)
		}
		return nil, fmt.Errorf("signing command %q: %v (%s)", s.Command, err, bytes.TrimSpace(stderr.Bytes()))
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("signing command %q produced no signature", s.Command)
	}

	return stdout.Bytes(), nil
}

// LocalSigner signs in-process with an RSA private key. It reproduces the
// openssl hash-and-sign convention exactly: the 32-byte digest message is
// itself hashed with SHA-256 and the result signed with PKCS#1 v1.5.
type LocalSigner struct {
	key *rsa.PrivateKey
}

// NewLocalSigner parses an RSA private key from PEM-encoded keyPEM, in
// either PKCS#1 or PKCS#8 form.
func NewLocalSigner(keyPEM []byte) (*LocalSigner, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("no PEM block found in signing key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &LocalSigner{key: key}, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing signing key: %v", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signing key is %T, expected RSA", parsed)
	}

	return &LocalSigner{key: key}, nil
}

// SignatureSize returns the signature length this key produces, in bytes.
func (s *LocalSigner) SignatureSize() int {
	return s.key.Size()
}

// Sign implements Signer.
func (s *LocalSigner) Sign(_ context.Context, digest []byte) ([]byte, error) {
	sum := sha2.Sum(digest).Bytes()

	sig, err := rsa.SignPKCS1v15(nil, s.key, crypto.SHA256, sum[:])
	if err != nil {
		return nil, fmt.Errorf("RSA signing: %v", err)
	}

	return sig, nil
}
