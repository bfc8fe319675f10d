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

package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kraklabs/cardboard/pkg/settings"
)

// Wire tags.
const (
	TagInit              = "init"
	TagFileAdded         = "fileAdded"
	TagAllMarkdownLoaded = "allMarkdownLoaded"
	TagAllTasksLoaded    = "allTasksLoaded"
	TagUpdateSettings    = "updateSettings"
)

// ErrMissingTag is returned when a message has no tag.
var ErrMissingTag = errors.New("engine: message has no tag")

// envelope is the wire form of every message: {"tag": ..., "data": ...}.
type envelope struct {
	Tag  string          `json:"tag"`
	Data json.RawMessage `json:"data"`
}

// Outbound is a message sent from the host to the engine.
type Outbound interface {
	Tag() string
}

// Init carries the engine's start-up flags. It is always the first message.
type Init struct {
	Flags Flags
}

// FileAdded hands one note to the engine. FileDate is nil when no
// calendar date could be derived for the file.
type FileAdded struct {
	FilePath     string  `json:"filePath"`
	FileDate     *string `json:"fileDate"`
	FileContents string  `json:"fileContents"`
}

// AllMarkdownLoaded marks the end of an ingestion batch.
type AllMarkdownLoaded struct{}

func (Init) Tag() string              { return TagInit }
func (FileAdded) Tag() string         { return TagFileAdded }
func (AllMarkdownLoaded) Tag() string { return TagAllMarkdownLoaded }

// EncodeOutbound returns the wire form of m.
func EncodeOutbound(m Outbound) ([]byte, error) {
	var payload any
	switch msg := m.(type) {
	case Init:
		payload = msg.Flags
	case FileAdded:
		payload = msg
	case AllMarkdownLoaded:
		payload = struct{}{}
	default:
		return nil, fmt.Errorf("engine: unsupported outbound message %T", m)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("engine: encode %s: %w", m.Tag(), err)
	}
	return json.Marshal(envelope{Tag: m.Tag(), Data: data})
}

// DecodeOutbound parses a host-to-engine message. Engines and test doubles
// use it; the host only encodes.
func DecodeOutbound(b []byte) (Outbound, error) {
	env, err := decodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.Tag {
	case TagInit:
		var f Flags
		if err := unmarshalData(env, &f); err != nil {
			return nil, err
		}
		return Init{Flags: f}, nil
	case TagFileAdded:
		var m FileAdded
		if err := unmarshalData(env, &m); err != nil {
			return nil, err
		}
		return m, nil
	case TagAllMarkdownLoaded:
		return AllMarkdownLoaded{}, nil
	default:
		return nil, fmt.Errorf("engine: unknown outbound tag %q", env.Tag)
	}
}

// Event is a message received from the engine.
type Event interface {
	EventTag() string
}

// AllTasksLoaded reports that the engine has built the task model for the
// whole batch.
type AllTasksLoaded struct{}

// SettingsUpdated carries settings edited on the board and to be saved.
type SettingsUpdated struct {
	Settings *settings.Settings
}

// Unknown is any event whose tag this host does not understand. It is
// never an error.
type Unknown struct {
	Tag  string
	Data json.RawMessage
}

func (AllTasksLoaded) EventTag() string  { return TagAllTasksLoaded }
func (SettingsUpdated) EventTag() string { return TagUpdateSettings }
func (u Unknown) EventTag() string       { return u.Tag }

// DecodeEvent parses an engine-to-host message.
func DecodeEvent(b []byte) (Event, error) {
	env, err := decodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.Tag {
	case TagAllTasksLoaded:
		return AllTasksLoaded{}, nil
	case TagUpdateSettings:
		s, err := settings.Parse(env.Data)
		if err != nil {
			return nil, fmt.Errorf("engine: decode %s: %w", env.Tag, err)
		}
		return SettingsUpdated{Settings: s}, nil
	default:
		return Unknown{Tag: env.Tag, Data: env.Data}, nil
	}
}

// EncodeEvent returns the wire form of ev. Used by engines and test doubles.
func EncodeEvent(ev Event) ([]byte, error) {
	var data json.RawMessage
	switch e := ev.(type) {
	case AllTasksLoaded:
		data = json.RawMessage(`{}`)
	case SettingsUpdated:
		b, err := settings.Marshal(e.Settings)
		if err != nil {
			return nil, err
		}
		data = b
	case Unknown:
		data = e.Data
	default:
		return nil, fmt.Errorf("engine: unsupported event %T", ev)
	}
	if len(data) == 0 {
		data = json.RawMessage(`null`)
	}
	return json.Marshal(envelope{Tag: ev.EventTag(), Data: data})
}

func decodeEnvelope(b []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return envelope{}, fmt.Errorf("engine: decode message: %w", err)
	}
	if env.Tag == "" {
		return envelope{}, ErrMissingTag
	}
	return env, nil
}

func unmarshalData(env envelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("engine: decode %s: %w", env.Tag, err)
	}
	return nil
}
