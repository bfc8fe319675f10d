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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/tailscale/hujson"

	"github.com/kraklabs/cardboard/pkg/engine"
	"github.com/kraklabs/cardboard/pkg/ingestion"
)

// AppConfig is the subset of the vault's app.json the plugin reads.
type AppConfig struct {
	RightToLeft bool `json:"rightToLeft"`
}

// ReadAppConfig reads <configDir>/app.json. A missing file yields the zero
// config.
func ReadAppConfig(ctx context.Context, a *DirAdapter, configDir string) (AppConfig, error) {
	var cfg AppConfig
	_, err := readJSON(ctx, a, path.Join(configDir, "app.json"), &cfg)
	return cfg, err
}

// ReadDailyNoteSettings reads <configDir>/daily-notes.json. A missing file
// yields the zero settings, which select the default format.
func ReadDailyNoteSettings(ctx context.Context, a *DirAdapter, configDir string) (ingestion.DailyNoteSettings, error) {
	var s ingestion.DailyNoteSettings
	_, err := readJSON(ctx, a, path.Join(configDir, "daily-notes.json"), &s)
	return s, err
}

// ReadDataviewSettings reads the dataview plugin's data file. It returns
// nil when dataview is not installed.
func ReadDataviewSettings(ctx context.Context, a *DirAdapter, configDir string) (*engine.DataviewSettings, error) {
	var ds engine.DataviewSettings
	found, err := readJSON(ctx, a, path.Join(configDir, "plugins", "dataview", "data.json"), &ds)
	if err != nil || !found {
		return nil, err
	}
	return &ds, nil
}

// readJSON decodes a JSON-with-comments file into v. It reports false,
// nil when the file does not exist.
func readJSON(ctx context.Context, a *DirAdapter, p string, v any) (bool, error) {
	data, err := a.Read(ctx, p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", p, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true, nil
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return true, fmt.Errorf("parse %s: %w", p, err)
	}
	if err := json.Unmarshal(std, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", p, err)
	}
	return true, nil
}
