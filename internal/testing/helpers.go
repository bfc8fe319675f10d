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
	"os"
	"path/filepath"
	"testing"
)

// ConfigDir is the vault configuration directory of fixture vaults.
const ConfigDir = ".obsidian"

// SettingsFile is the vault-relative path of the plugin settings.
const SettingsFile = ConfigDir + "/plugins/card-board/data.json"

// SampleSettings has three boards, the last in the legacy shape, and deny
// filters for the Archive folder and Scratch.md.
const SampleSettings = `{
	"version": "0.11.0",
	"data": {
		"globalSettings": {
			"filters": [
				{"tag": "pathFilter", "data": "Archive"},
				{"tag": "fileFilter", "data": "Scratch.md"}
			],
			"filterPolarity": "Deny"
		},
		"boardConfigs": [
			{"tag": "dateBoardConfig", "data": {"title": "Today"}},
			{"tag": "tagBoardConfig", "data": {"title": "Work"}},
			{"name": "Weekly review"}
		]
	}
}`

// SampleNotes are the notes of SeedSampleVault, keyed by vault path.
var SampleNotes = map[string]string{
	"Daily/2024-03-05.md": "- [ ] standup",
	"Archive/old.md":      "- [x] done",
	"Scratch.md":          "scratch",
	"Projects/plan.md":    "- [ ] plan #work",
	"Inbox.md":            "- [ ] inbox",
}

// NewVault returns an empty vault with an empty app configuration.
func NewVault(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	WriteConfig(t, root, "app.json", "{}")
	return root
}

// SeedSampleVault returns a vault holding SampleNotes and SampleSettings.
func SeedSampleVault(t testing.TB) string {
	t.Helper()
	root := NewVault(t)
	for rel, content := range SampleNotes {
		WriteFile(t, root, rel, content)
	}
	WriteSettings(t, root, SampleSettings)
	return root
}

// WriteFile writes content at the slash-separated path rel below root,
// creating directories as needed.
func WriteFile(t testing.TB, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// WriteConfig writes a file into the vault configuration directory, such
// as "app.json" or "daily-notes.json".
func WriteConfig(t testing.TB, root, name, content string) {
	t.Helper()
	WriteFile(t, root, ConfigDir+"/"+name, content)
}

// WriteSettings replaces the plugin settings file.
func WriteSettings(t testing.TB, root, doc string) {
	t.Helper()
	WriteFile(t, root, SettingsFile, doc)
}

// ReadFile returns the content at rel below root.
func ReadFile(t testing.TB, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(b)
}

// Exists reports whether rel exists below root.
func Exists(t testing.TB, root, rel string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", rel, err)
	}
	return err == nil
}
