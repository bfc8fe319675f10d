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

package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
)

// PluginID is the plugin's directory name under <configDir>/plugins.
const PluginID = "card-board"

// ErrNilSettings is returned by Save when given nil settings.
var ErrNilSettings = errors.New("settings: cannot save nil settings")

// DataAdapter is the host's file storage, addressed by vault-relative
// slash paths.
type DataAdapter interface {
	Exists(ctx context.Context, p string) (bool, error)
	Read(ctx context.Context, p string) ([]byte, error)
	Write(ctx context.Context, p string, data []byte) error
	Copy(ctx context.Context, src, dst string) error
	Remove(ctx context.Context, p string) error
}

// ChangeFunc is called during Save with the settings about to become
// current. It runs with the store locked and must not call Save.
type ChangeFunc func(ctx context.Context, next *Settings) error

// Store loads and saves the plugin settings file and keeps the in-memory
// copy. It is the only writer of the configuration.
type Store struct {
	adapter DataAdapter
	dir     string
	logger  *slog.Logger

	mu      sync.Mutex
	current *Settings
	onSave  []ChangeFunc
}

// NewStore creates a store for the plugin data under configDir
// (typically ".obsidian").
func NewStore(adapter DataAdapter, configDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		adapter: adapter,
		dir:     path.Join(configDir, "plugins", PluginID),
		logger:  logger,
	}
}

// SettingsPath is the path of the persisted settings file.
func (s *Store) SettingsPath() string {
	return path.Join(s.dir, "data.json")
}

// BackupPath is the path the settings file is copied to before a save
// replaces the given version.
func (s *Store) BackupPath(version string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(version)
	return path.Join(s.dir, "data."+safe+".json")
}

// OnChange registers fn to run at the command-rebuild step of every Save.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSave = append(s.onSave, fn)
}

// Current returns the in-memory settings, which may be nil.
func (s *Store) Current() *Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Load reads the persisted settings and makes them current.
//
// A missing file is not an error and yields nil settings. A file that
// cannot be parsed is logged and also yields nil settings. Only storage
// failures are returned.
func (s *Store) Load(ctx context.Context) (*Settings, error) {
	p := s.SettingsPath()

	exists, err := s.adapter.Exists(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("settings: stat %s: %w", p, err)
	}

	var loaded *Settings
	if exists {
		data, err := s.adapter.Read(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("settings: read %s: %w", p, err)
		}
		loaded, err = Parse(data)
		if err != nil {
			s.logger.Warn("settings.load.malformed", "path", p, "err", err)
			loaded = nil
		}
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	s.logger.Info("settings.load.complete",
		"path", p,
		"found", exists,
		"version", VersionOf(loaded),
		"boards", len(loaded.Boards()),
	)
	return loaded, nil
}

// Save replaces the settings. In order, it:
//
//  1. copies the current file to BackupPath(oldVersion) when a previous
//     version exists and differs from next.Version (best effort, awaited);
//  2. runs the OnChange functions (command rebuild);
//  3. makes next the in-memory settings;
//  4. persists next.
//
// If an OnChange function fails, Save stops before step 3 and returns the
// error.
func (s *Store) Save(ctx context.Context, next *Settings) error {
	if next == nil {
		return ErrNilSettings
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldVersion := VersionOf(s.current)
	if oldVersion != "" && oldVersion != next.Version {
		s.backup(ctx, oldVersion)
	}

	for _, fn := range s.onSave {
		if err := fn(ctx, next); err != nil {
			return fmt.Errorf("settings: apply: %w", err)
		}
	}

	s.current = next

	data, err := Marshal(next)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := s.adapter.Write(ctx, s.SettingsPath(), data); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.SettingsPath(), err)
	}

	s.logger.Info("settings.save.complete",
		"old_version", oldVersion,
		"version", next.Version,
		"boards", len(next.Boards()),
	)
	return nil
}

// backup copies the settings file aside before it is overwritten. Failures
// are logged and never stop the save.
func (s *Store) backup(ctx context.Context, oldVersion string) {
	src := s.SettingsPath()
	dst := s.BackupPath(oldVersion)

	exists, err := s.adapter.Exists(ctx, dst)
	if err != nil {
		s.logger.Warn("settings.backup.error", "path", dst, "step", "stat", "err", err)
		return
	}
	if exists {
		if err := s.adapter.Remove(ctx, dst); err != nil {
			s.logger.Warn("settings.backup.error", "path", dst, "step", "remove", "err", err)
			return
		}
	}

	if err := s.adapter.Copy(ctx, src, dst); err != nil {
		s.logger.Warn("settings.backup.error", "path", dst, "step", "copy", "err", err)
		return
	}
	s.logger.Info("settings.backup.created", "path", dst, "version", oldVersion)
}
