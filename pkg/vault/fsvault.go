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
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/kraklabs/cardboard/pkg/ingestion"
)

// DefaultConfigDir is the vault's configuration directory.
const DefaultConfigDir = ".obsidian"

// FSVault is a vault backed by a directory on disk.
type FSVault struct {
	root   string
	logger *slog.Logger

	mu    sync.Mutex
	disk  map[string]string // vault path -> on-disk relative path
	cache map[string]cachedNote
}

type cachedNote struct {
	modTime time.Time
	size    int64
	content string
}

// Open returns the vault rooted at root. If logger is nil, slog.Default()
// is used.
func Open(root string, logger *slog.Logger) (*FSVault, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	return &FSVault{
		root:   abs,
		logger: logger,
		disk:   make(map[string]string),
		cache:  make(map[string]cachedNote),
	}, nil
}

// Root returns the absolute vault directory.
func (v *FSVault) Root() string { return v.root }

// ConfigDir returns the vault-relative configuration directory.
func (v *FSVault) ConfigDir() string { return DefaultConfigDir }

// MarkdownFiles walks the vault and returns every .md note sorted by path.
// Hidden directories, including the configuration directory, are skipped.
// Paths are slash-separated and NFC-normalized.
func (v *FSVault) MarkdownFiles(ctx context.Context) ([]ingestion.File, error) {
	var files []ingestion.File
	disk := make(map[string]string)

	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			v.logger.Warn("vault.walk.error", "path", p, "err", err)
			if d != nil && d.IsDir() && p != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := d.Name()
		if d.IsDir() {
			if p != v.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || filepath.Ext(name) != ".md" {
			return nil
		}

		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			v.logger.Warn("vault.walk.stat_error", "path", rel, "err", err)
			return nil
		}

		vp := norm.NFC.String(filepath.ToSlash(rel))
		disk[vp] = rel
		files = append(files, ingestion.File{
			Path:    vp,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	v.mu.Lock()
	v.disk = disk
	v.mu.Unlock()

	v.logger.Debug("vault.walk.complete", "root", v.root, "notes", len(files))
	return files, nil
}

// CachedRead returns the note's content. Content is served from memory
// while the file's modification time and size are unchanged.
func (v *FSVault) CachedRead(ctx context.Context, f ingestion.File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	v.mu.Lock()
	rel, ok := v.disk[f.Path]
	entry, cached := v.cache[f.Path]
	v.mu.Unlock()
	if !ok {
		rel = filepath.FromSlash(f.Path)
	}
	full := filepath.Join(v.root, rel)

	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Path, err)
	}
	if cached && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.content, nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Path, err)
	}
	content := string(data)

	v.mu.Lock()
	v.cache[f.Path] = cachedNote{modTime: info.ModTime(), size: info.Size(), content: content}
	v.mu.Unlock()
	return content, nil
}
