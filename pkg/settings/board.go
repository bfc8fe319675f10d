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
	"encoding/json"
	"maps"
)

// BoardConfig is one board definition in its current shape:
//
//	{"tag": "dateBoardConfig", "data": {"title": "Today", ...}}
//
// Legacy definitions of the form {"name": "Today", ...} are read into this
// shape when decoded, so callers only ever see one shape. They keep their
// own wire form when encoded again: the engine migrates them itself.
type BoardConfig struct {
	Tag  string
	Data map[string]json.RawMessage

	extra map[string]json.RawMessage

	legacy        bool
	legacyName    json.RawMessage
	titleFromName bool
}

// NewBoardConfig returns a board config with the given tag and title.
func NewBoardConfig(tag, title string) BoardConfig {
	b := BoardConfig{Tag: tag, Data: map[string]json.RawMessage{}}
	_ = put(b.Data, "title", title)
	return b
}

// Title returns the board's display name: data.title, falling back to
// data.name, then "".
func (b BoardConfig) Title() string {
	for _, key := range []string{"title", "name"} {
		var s string
		if raw, ok := b.Data[key]; ok && json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	return ""
}

func (b *BoardConfig) UnmarshalJSON(raw []byte) error {
	obj, err := decodeObject(raw)
	if err != nil {
		return err
	}
	if err := take(obj, "tag", &b.Tag); err != nil {
		return err
	}

	if member, ok := obj["data"]; ok {
		delete(obj, "data")
		var data map[string]json.RawMessage
		if json.Unmarshal(member, &data) == nil && data != nil {
			b.Data = data
			b.extra = obj
			return nil
		}
		// data is present but not an object: keep it under its own key so
		// nothing is lost, and treat the rest as a legacy body.
		obj["data"] = member
	}

	// Legacy shape: every remaining field is board data and name is the title.
	b.Data = map[string]json.RawMessage{}
	for k, v := range obj {
		if k != "name" {
			b.Data[k] = v
		}
	}
	b.legacy = true
	if name, ok := obj["name"]; ok {
		b.legacyName = name
		if _, hasTitle := b.Data["title"]; !hasTitle {
			b.Data["title"] = name
			b.titleFromName = true
		}
	}
	return nil
}

func (b BoardConfig) MarshalJSON() ([]byte, error) {
	if b.legacy {
		return b.marshalLegacy()
	}
	out := maps.Clone(b.extra)
	if out == nil {
		out = map[string]json.RawMessage{}
	}
	if err := put(out, "tag", b.Tag); err != nil {
		return nil, err
	}
	data := b.Data
	if data == nil {
		data = map[string]json.RawMessage{}
	}
	if err := put(out, "data", data); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// marshalLegacy writes a legacy board back in the form it was read.
func (b BoardConfig) marshalLegacy() ([]byte, error) {
	out := maps.Clone(b.Data)
	if out == nil {
		out = map[string]json.RawMessage{}
	}
	delete(out, "tag")
	if b.titleFromName {
		delete(out, "title")
	}
	if b.legacyName != nil {
		out["name"] = b.legacyName
	}
	if b.Tag != "" {
		if err := put(out, "tag", b.Tag); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}
