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
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/cardboard/pkg/settings"
)

// Defaults used when the dataview plugin, or one of its settings, is absent.
const (
	DefaultTaskCompletionTracking          = true
	DefaultTaskCompletionUseEmojiShorthand = false
	DefaultTaskCompletionText              = "completion"
)

// Flags is the engine's start-up payload.
type Flags struct {
	UniqueID       string             `json:"uniqueId"`
	Now            int64              `json:"now"`            // milliseconds since the Unix epoch
	Zone           int                `json:"zone"`           // minutes behind UTC, as Date.getTimezoneOffset
	FirstDayOfWeek int                `json:"firstDayOfWeek"` // 0 = Sunday
	Settings       *settings.Settings `json:"settings"`
	RightToLeft    bool               `json:"rightToLeft"`

	DataviewTaskCompletion TaskCompletion `json:"dataviewTaskCompletion"`
}

// TaskCompletion describes how completed tasks are annotated.
type TaskCompletion struct {
	TaskCompletionTracking          bool   `json:"taskCompletionTracking"`
	TaskCompletionUseEmojiShorthand bool   `json:"taskCompletionUseEmojiShorthand"`
	TaskCompletionText              string `json:"taskCompletionText"`
}

// DataviewSettings is the subset of the dataview plugin's settings the
// engine needs. Nil fields were not present in the dataview data file.
type DataviewSettings struct {
	TaskCompletionTracking          *bool   `json:"taskCompletionTracking"`
	TaskCompletionUseEmojiShorthand *bool   `json:"taskCompletionUseEmojiShorthand"`
	TaskCompletionText              *string `json:"taskCompletionText"`
}

// ParseDataviewSettings decodes the dataview plugin's data.json.
func ParseDataviewSettings(b []byte) (*DataviewSettings, error) {
	var ds DataviewSettings
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("engine: dataview settings: %w", err)
	}
	return &ds, nil
}

// TaskCompletionFrom resolves the task-completion conventions, falling
// back to the defaults for anything dataview does not set.
func TaskCompletionFrom(ds *DataviewSettings) TaskCompletion {
	tc := TaskCompletion{
		TaskCompletionTracking:          DefaultTaskCompletionTracking,
		TaskCompletionUseEmojiShorthand: DefaultTaskCompletionUseEmojiShorthand,
		TaskCompletionText:              DefaultTaskCompletionText,
	}
	if ds == nil {
		return tc
	}
	if ds.TaskCompletionTracking != nil {
		tc.TaskCompletionTracking = *ds.TaskCompletionTracking
	}
	if ds.TaskCompletionUseEmojiShorthand != nil {
		tc.TaskCompletionUseEmojiShorthand = *ds.TaskCompletionUseEmojiShorthand
	}
	if ds.TaskCompletionText != nil {
		tc.TaskCompletionText = *ds.TaskCompletionText
	}
	return tc
}

// FlagOptions are the host facts that go into Flags.
type FlagOptions struct {
	// UniqueID identifies the session; a random UUID when empty.
	UniqueID string
	// Now defaults to time.Now().
	Now time.Time
	// Location defaults to time.Local.
	Location       *time.Location
	FirstDayOfWeek int
	RightToLeft    bool
	Dataview       *DataviewSettings
}

// NewFlags builds the start-up payload for s, which may be nil.
func NewFlags(s *settings.Settings, opts FlagOptions) Flags {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	id := opts.UniqueID
	if id == "" {
		id = uuid.NewString()
	}

	_, offset := now.In(loc).Zone()

	return Flags{
		UniqueID:               id,
		Now:                    now.UnixMilli(),
		Zone:                   -offset / 60,
		FirstDayOfWeek:         opts.FirstDayOfWeek,
		Settings:               s,
		RightToLeft:            opts.RightToLeft,
		DataviewTaskCompletion: TaskCompletionFrom(opts.Dataview),
	}
}
