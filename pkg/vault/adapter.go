// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// ErrOutsideVault is returned for paths that escape the vault directory.
var ErrOutsideVault = errors.New("vault: path escapes vault root")

// DirAdapter stores plugin data files under a vault directory. Writes are
// atomic: a reader never sees a half-written settings file.
type DirAdapter struct {
	root string
}

// NewDirAdapter returns an adapter rooted at dir.
func NewDirAdapter(dir string) *DirAdapter {
	return &DirAdapter{root: dir}
}

// Adapter returns a DirAdapter over the vault's directory.
func (v *FSVault) Adapter() *DirAdapter {
	return NewDirAdapter(v.root)
}

func (a *DirAdapter) resolve(p string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(p))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, p)
	}
	return filepath.Join(a.root, clean), nil
}

// Exists reports whether p exists.
func (a *DirAdapter) Exists(ctx context.Context, p string) (bool, error) {
	full, err := a.resolve(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Read returns the contents of p.
func (a *DirAdapter) Read(ctx context.Context, p string) ([]byte, error) {
	full, err := a.resolve(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Write atomically replaces p, creating parent directories.
func (a *DirAdapter) Write(ctx context.Context, p string, data []byte) error {
	full, err := a.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(p), err)
	}
	if err := atomic.WriteFile(full, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// Copy copies src to dst. dst must not exist.
func (a *DirAdapter) Copy(ctx context.Context, src, dst string) error {
	srcFull, err := a.resolve(src)
	if err != nil {
		return err
	}
	dstFull, err := a.resolve(dst)
	if err != nil {
		return err
	}

	in, err := os.Open(srcFull)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dstFull, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// Remove deletes p.
func (a *DirAdapter) Remove(ctx context.Context, p string) error {
	full, err := a.resolve(p)
	if err != nil {
		return err
	}
	return os.Remove(full)
}
