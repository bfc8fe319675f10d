// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package plugin

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cbtest "github.com/kraklabs/cardboard/internal/testing"
	"github.com/kraklabs/cardboard/pkg/engine"
	"github.com/kraklabs/cardboard/pkg/ingestion"
	"github.com/kraklabs/cardboard/pkg/vault"
)

func TestVaultEnvironment_ReadsConfig(t *testing.T) {
	root := cbtest.NewVault(t)
	cbtest.WriteConfig(t, root, "app.json", `{"rightToLeft": true}`)
	cbtest.WriteConfig(t, root, "daily-notes.json", `{"format": "YYYY/MM/DD", "folder": "Daily"}`)
	cbtest.WriteConfig(t, root, "plugins/dataview/data.json", `{"taskCompletionText": "done"}`)

	env, err := VaultEnvironment(vault.NewDirAdapter(root), vault.DefaultConfigDir, 0, time.UTC, nil)(context.Background())
	require.NoError(t, err)

	assert.True(t, env.RightToLeft)
	assert.Equal(t, ingestion.DailyNoteSettings{Format: "YYYY/MM/DD", Folder: "Daily"}, env.DailyNotes)
	require.NotNil(t, env.Dataview)
	assert.Equal(t, "done", engine.TaskCompletionFrom(env.Dataview).TaskCompletionText)
	assert.Equal(t, time.UTC, env.Location)
}

func TestVaultEnvironment_InvalidFilesFallBack(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"dataview truncated", "plugins/dataview/data.json", `{`},
		{"dataview wrong type", "plugins/dataview/data.json", `{"taskCompletionTracking": "yes"}`},
		{"app truncated", "app.json", `{"rightToLeft": tru`},
		{"app wrong type", "app.json", `{"rightToLeft": "yes"}`},
		{"daily notes wrong type", "daily-notes.json", `{"format": 7}`},
		{"daily notes not an object", "daily-notes.json", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := cbtest.NewVault(t)
			cbtest.WriteConfig(t, root, tt.file, tt.content)

			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))

			env, err := VaultEnvironment(vault.NewDirAdapter(root), vault.DefaultConfigDir, 1, time.UTC, logger)(context.Background())
			require.NoError(t, err)

			assert.False(t, env.RightToLeft)
			assert.Equal(t, ingestion.DailyNoteSettings{}, env.DailyNotes)
			assert.Nil(t, env.Dataview)
			assert.Equal(t, 1, env.FirstDayOfWeek)
			assert.Contains(t, logs.String(), "plugin.environment.invalid")
		})
	}
}

func TestPlugin_BrokenDataviewSettingsStillIngests(t *testing.T) {
	for _, doc := range []string{`{`, `{"taskCompletionTracking": "yes"}`} {
		t.Run(doc, func(t *testing.T) {
			s := newSession(t, settingsJSON)
			cbtest.WriteConfig(t, s.root, "plugins/dataview/data.json", doc)

			res := s.start(t)
			assert.Equal(t, 3, res.FilesSent)
			assert.Len(t, s.received(), 3)
			assert.True(t, s.plugin.Activated())

			s.mu.Lock()
			flags := s.flags
			s.mu.Unlock()
			assert.Equal(t, engine.TaskCompletion{
				TaskCompletionTracking:          true,
				TaskCompletionUseEmojiShorthand: false,
				TaskCompletionText:              "completion",
			}, flags.DataviewTaskCompletion)
		})
	}
}
