// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEncodeOutbound_FileAdded(t *testing.T) {
	b, err := EncodeOutbound(FileAdded{
		FilePath:     "Daily/2024-03-05.md",
		FileDate:     strPtr("2024-03-05"),
		FileContents: "- [ ] task",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"fileAdded","data":{"filePath":"Daily/2024-03-05.md","fileDate":"2024-03-05","fileContents":"- [ ] task"}}`, string(b))
}

func TestEncodeOutbound_FileAddedWithoutDate(t *testing.T) {
	b, err := EncodeOutbound(FileAdded{FilePath: "a.md", FileContents: ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"fileAdded","data":{"filePath":"a.md","fileDate":null,"fileContents":""}}`, string(b))
}

func TestEncodeOutbound_AllMarkdownLoaded(t *testing.T) {
	b, err := EncodeOutbound(AllMarkdownLoaded{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"allMarkdownLoaded","data":{}}`, string(b))
}

func TestDecodeOutbound_RoundTripsInit(t *testing.T) {
	flags := Flags{
		UniqueID:               "abc",
		Now:                    1700000000000,
		Zone:                   -60,
		FirstDayOfWeek:         1,
		DataviewTaskCompletion: TaskCompletionFrom(nil),
	}
	b, err := EncodeOutbound(Init{Flags: flags})
	require.NoError(t, err)

	m, err := DecodeOutbound(b)
	require.NoError(t, err)
	got, ok := m.(Init)
	require.True(t, ok, "got %T", m)
	if diff := cmp.Diff(flags, got.Flags); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEvent(t *testing.T) {
	t.Run("allTasksLoaded", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"tag":"allTasksLoaded","data":{}}`))
		require.NoError(t, err)
		assert.Equal(t, AllTasksLoaded{}, ev)
	})

	t.Run("allTasksLoaded without data", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"tag":"allTasksLoaded"}`))
		require.NoError(t, err)
		assert.Equal(t, TagAllTasksLoaded, ev.EventTag())
	})

	t.Run("updateSettings", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"tag":"updateSettings","data":{"version":"0.11.0","data":{"boardConfigs":[{"tag":"dateBoardConfig","data":{"title":"Today"}}]}}}`))
		require.NoError(t, err)
		su, ok := ev.(SettingsUpdated)
		require.True(t, ok, "got %T", ev)
		require.NotNil(t, su.Settings)
		assert.Equal(t, "0.11.0", su.Settings.Version)
		require.Len(t, su.Settings.Boards(), 1)
		assert.Equal(t, "Today", su.Settings.Boards()[0].Title())
	})

	t.Run("unknown tag is not an error", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"tag":"openTaskSourceFile","data":{"filePath":"a.md"}}`))
		require.NoError(t, err)
		u, ok := ev.(Unknown)
		require.True(t, ok)
		assert.Equal(t, "openTaskSourceFile", u.Tag)
		assert.JSONEq(t, `{"filePath":"a.md"}`, string(u.Data))
	})

	t.Run("missing tag", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"data":{}}`))
		assert.ErrorIs(t, err, ErrMissingTag)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"tag":`))
		assert.Error(t, err)
	})
}

func TestEncodeEvent(t *testing.T) {
	b, err := EncodeEvent(AllTasksLoaded{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"allTasksLoaded","data":{}}`, string(b))

	b, err = EncodeEvent(Unknown{Tag: "ping"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"ping","data":null}`, string(b))

	var env map[string]any
	require.NoError(t, json.Unmarshal(b, &env))
	assert.Equal(t, "ping", env["tag"])
}
