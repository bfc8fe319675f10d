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

package testing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVault(t *testing.T) {
	root := NewVault(t)

	assert.True(t, Exists(t, root, ".obsidian/app.json"))
	assert.False(t, Exists(t, root, SettingsFile))
}

func TestSeedSampleVault(t *testing.T) {
	root := SeedSampleVault(t)

	for rel, content := range SampleNotes {
		assert.Equal(t, content, ReadFile(t, root, rel), rel)
	}
	assert.Equal(t, SampleSettings, ReadFile(t, root, SettingsFile))
}

func TestSampleSettingsIsJSON(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(SampleSettings), &doc))
	assert.Equal(t, "0.11.0", doc["version"])
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	root := t.TempDir()

	WriteFile(t, root, "a/b/c/note.md", "- [ ] deep")

	assert.Equal(t, "- [ ] deep", ReadFile(t, root, "a/b/c/note.md"))
}
