// Copyright 2025 KrakLabs
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

package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoftLimitBytes(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{name: "unset", env: "", want: DefaultSoftLimitBytes},
		{name: "override", env: "1048576", want: 1 << 20},
		{name: "not a number", env: "lots", want: DefaultSoftLimitBytes},
		{name: "zero", env: "0", want: DefaultSoftLimitBytes},
		{name: "negative", env: "-5", want: DefaultSoftLimitBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CARDBOARD_SOFT_LIMIT_BYTES", tt.env)
			assert.Equal(t, tt.want, SoftLimitBytes())
		})
	}
}

func TestMaxNoteBytes(t *testing.T) {
	assert.Equal(t, int64(DefaultSoftLimitBytes-envelopeReserve), MaxNoteBytes(DefaultSoftLimitBytes))
	// Small limits keep half of the message for the note.
	assert.Equal(t, int64(512), MaxNoteBytes(1024))
}

func TestValidateNote(t *testing.T) {
	limit := 1 << 20
	maxBytes := MaxNoteBytes(limit)

	assert.True(t, ValidateNote("a.md", 0, limit).OK)
	assert.True(t, ValidateNote("a.md", maxBytes, limit).OK)

	v := ValidateNote("Big.md", maxBytes+1, limit)
	assert.False(t, v.OK)
	assert.Contains(t, v.Message, "Big.md")
}

func TestValidateMessage(t *testing.T) {
	assert.True(t, ValidateMessage("a.md", 1023, 1024).OK)

	r := ValidateMessage("a.md", 1024, 1024)
	assert.False(t, r.OK, "the line terminator must fit too")
	assert.Contains(t, r.Message, "a.md encodes to 1024 bytes")
}
