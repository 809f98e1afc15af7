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

package emit

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile runs fn against a temporary file in path's directory and
// renames it over path only if fn and all writes succeed. A failed run
// leaves the destination absent or unchanged, so a partially generated
// image can never be mistaken for a complete one.
func WriteFile(path string, fn func(w *os.File) error) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating output in %q: %w", dir, err)
	}

	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = fn(f); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", path, err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("renaming output into place: %w", err)
	}

	return nil
}
