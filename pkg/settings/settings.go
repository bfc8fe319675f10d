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

// Package settings owns the CardBoard plugin configuration: its JSON
// model, the normalization of legacy board shapes, and the Store that
// loads and saves the versioned settings file with backup-on-version-change.
//
// The computation engine owns most of the schema, so every level of the
// document keeps the fields it does not know about and writes them back
// unchanged on save.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/tailscale/hujson"
)

// Settings is the persisted plugin configuration.
//
// A nil *Settings is valid and means "no configuration yet": the accessor
// methods return zero values for it.
type Settings struct {
	Version string
	Data    Data

	extra map[string]json.RawMessage
}

// Data holds the global settings and the ordered board definitions.
type Data struct {
	GlobalSettings GlobalSettings
	BoardConfigs   []BoardConfig

	extra map[string]json.RawMessage
}

// GlobalSettings are the settings shared by every board.
type GlobalSettings struct {
	Filters        []Filter
	FilterPolarity string
	FilterScope    string

	extra map[string]json.RawMessage
}

// Filter is the persisted form of a file filter: {"tag":"pathFilter","data":"Daily"}.
type Filter struct {
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

// Global returns the global settings, or the zero value for nil settings.
func (s *Settings) Global() GlobalSettings {
	if s == nil {
		return GlobalSettings{}
	}
	return s.Data.GlobalSettings
}

// Boards returns the board definitions, or nil for nil settings.
func (s *Settings) Boards() []BoardConfig {
	if s == nil {
		return nil
	}
	return s.Data.BoardConfigs
}

// VersionOf returns the settings version, or "" when s is nil.
func VersionOf(s *Settings) string {
	if s == nil {
		return ""
	}
	return s.Version
}

// Parse decodes a settings document. Comments and trailing commas are
// accepted. An empty or null document yields nil settings and no error.
func Parse(data []byte) (*Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	if bytes.Equal(bytes.TrimSpace(standardized), []byte("null")) {
		return nil, nil
	}

	var s Settings
	if err := json.Unmarshal(standardized, &s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// Marshal encodes settings as indented JSON.
func Marshal(s *Settings) ([]byte, error) {
	if s == nil {
		return []byte("null\n"), nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (s *Settings) UnmarshalJSON(b []byte) error {
	raw, err := decodeObject(b)
	if err != nil {
		return err
	}
	if err := take(raw, "version", &s.Version); err != nil {
		return err
	}
	if err := take(raw, "data", &s.Data); err != nil {
		return err
	}
	s.extra = raw
	return nil
}

func (s Settings) MarshalJSON() ([]byte, error) {
	out := maps.Clone(s.extra)
	if out == nil {
		out = map[string]json.RawMessage{}
	}
	if err := put(out, "version", s.Version); err != nil {
		return nil, err
	}
	if err := put(out, "data", s.Data); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (d *Data) UnmarshalJSON(b []byte) error {
	raw, err := decodeObject(b)
	if err != nil {
		return err
	}
	if err := take(raw, "globalSettings", &d.GlobalSettings); err != nil {
		return err
	}
	if err := take(raw, "boardConfigs", &d.BoardConfigs); err != nil {
		return err
	}
	d.extra = raw
	return nil
}

func (d Data) MarshalJSON() ([]byte, error) {
	out := maps.Clone(d.extra)
	if out == nil {
		out = map[string]json.RawMessage{}
	}
	if err := put(out, "globalSettings", d.GlobalSettings); err != nil {
		return nil, err
	}
	boards := d.BoardConfigs
	if boards == nil {
		boards = []BoardConfig{}
	}
	if err := put(out, "boardConfigs", boards); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (g *GlobalSettings) UnmarshalJSON(b []byte) error {
	raw, err := decodeObject(b)
	if err != nil {
		return err
	}
	if err := take(raw, "filters", &g.Filters); err != nil {
		return err
	}
	if err := take(raw, "filterPolarity", &g.FilterPolarity); err != nil {
		return err
	}
	if err := take(raw, "filterScope", &g.FilterScope); err != nil {
		return err
	}
	g.extra = raw
	return nil
}

func (g GlobalSettings) MarshalJSON() ([]byte, error) {
	out := maps.Clone(g.extra)
	if out == nil {
		out = map[string]json.RawMessage{}
	}
	filters := g.Filters
	if filters == nil {
		filters = []Filter{}
	}
	if err := put(out, "filters", filters); err != nil {
		return nil, err
	}
	if g.FilterPolarity != "" {
		if err := put(out, "filterPolarity", g.FilterPolarity); err != nil {
			return nil, err
		}
	}
	if g.FilterScope != "" {
		if err := put(out, "filterScope", g.FilterScope); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// decodeObject decodes a JSON object into its raw members. null decodes to
// an empty map.
func decodeObject(b []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	return raw, nil
}

// take decodes raw[key] into v and removes it from raw. Missing or null
// members leave v untouched.
func take(raw map[string]json.RawMessage, key string, v any) error {
	member, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	if bytes.Equal(bytes.TrimSpace(member), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(member, v); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func put(out map[string]json.RawMessage, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	out[key] = b
	return nil
}
