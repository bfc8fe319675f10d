// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memAdapter is an in-memory DataAdapter that records every operation.
type memAdapter struct {
	mu      sync.Mutex
	files   map[string][]byte
	ops     []string
	copyErr error
}

func newMemAdapter() *memAdapter {
	return &memAdapter{files: map[string][]byte{}}
}

func (m *memAdapter) record(op string) {
	m.ops = append(m.ops, op)
}

func (m *memAdapter) Exists(_ context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[p]
	return ok, nil
}

func (m *memAdapter) Read(_ context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (m *memAdapter) Write(_ context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("write " + p)
	m.files[p] = append([]byte(nil), data...)
	return nil
}

func (m *memAdapter) Copy(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("copy " + src + " " + dst)
	if m.copyErr != nil {
		return m.copyErr
	}
	data, ok := m.files[src]
	if !ok {
		return fmt.Errorf("copy %s: %w", src, os.ErrNotExist)
	}
	m.files[dst] = append([]byte(nil), data...)
	return nil
}

func (m *memAdapter) Remove(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("remove " + p)
	delete(m.files, p)
	return nil
}

func (m *memAdapter) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func settingsWithVersion(v string, boards ...string) *Settings {
	s := &Settings{Version: v}
	for _, b := range boards {
		s.Data.BoardConfigs = append(s.Data.BoardConfigs, NewBoardConfig("dateBoardConfig", b))
	}
	return s
}

const (
	dataPath = ".obsidian/plugins/card-board/data.json"
)

func TestStore_Paths(t *testing.T) {
	store := NewStore(newMemAdapter(), ".obsidian", nil)
	assert.Equal(t, dataPath, store.SettingsPath())
	assert.Equal(t, ".obsidian/plugins/card-board/data.1.0.json", store.BackupPath("1.0"))
	assert.Equal(t, ".obsidian/plugins/card-board/data.a_b.json", store.BackupPath("a/b"))
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(newMemAdapter(), ".obsidian", nil)

	s, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Nil(t, store.Current())
}

func TestStore_LoadMalformedIsTolerated(t *testing.T) {
	adapter := newMemAdapter()
	adapter.files[dataPath] = []byte(`{"version": `)
	store := NewStore(adapter, ".obsidian", nil)

	s, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestStore_LoadExisting(t *testing.T) {
	adapter := newMemAdapter()
	adapter.files[dataPath] = []byte(currentShape)
	store := NewStore(adapter, ".obsidian", nil)

	s, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "0.11.0", s.Version)
	assert.Same(t, s, store.Current())
}

func TestStore_SaveBackupOnVersionChange(t *testing.T) {
	ctx := context.Background()
	adapter := newMemAdapter()
	store := NewStore(adapter, ".obsidian", nil)

	// No prior version: no backup.
	require.NoError(t, store.Save(ctx, settingsWithVersion("1.0", "A")))
	assert.Equal(t, []string{dataPath}, adapter.paths())

	// 1.0 -> 1.1: exactly one backup named after the old version.
	require.NoError(t, store.Save(ctx, settingsWithVersion("1.1", "A")))
	backup := ".obsidian/plugins/card-board/data.1.0.json"
	assert.Equal(t, []string{backup, dataPath}, adapter.paths())

	backedUp, err := Parse(adapter.files[backup])
	require.NoError(t, err)
	assert.Equal(t, "1.0", backedUp.Version)

	// 1.1 -> 1.1: no new backup.
	require.NoError(t, store.Save(ctx, settingsWithVersion("1.1", "A", "B")))
	assert.Equal(t, []string{backup, dataPath}, adapter.paths())

	persisted, err := Parse(adapter.files[dataPath])
	require.NoError(t, err)
	assert.Equal(t, "1.1", persisted.Version)
	assert.Len(t, persisted.Boards(), 2)
}

func TestStore_SaveReplacesStaleBackup(t *testing.T) {
	ctx := context.Background()
	adapter := newMemAdapter()
	backup := ".obsidian/plugins/card-board/data.1.0.json"
	adapter.files[backup] = []byte(`stale`)
	adapter.files[dataPath] = []byte(`{"version":"1.0","data":{}}`)

	store := NewStore(adapter, ".obsidian", nil)
	_, err := store.Load(ctx)
	require.NoError(t, err)

	adapter.ops = nil
	require.NoError(t, store.Save(ctx, settingsWithVersion("2.0")))

	assert.Equal(t, []string{
		"remove " + backup,
		"copy " + dataPath + " " + backup,
		"write " + dataPath,
	}, adapter.ops)
	assert.JSONEq(t, `{"version":"1.0","data":{}}`, string(adapter.files[backup]))
}

func TestStore_BackupFailureDoesNotBlockSave(t *testing.T) {
	ctx := context.Background()
	adapter := newMemAdapter()
	adapter.copyErr = errors.New("disk full")
	store := NewStore(adapter, ".obsidian", nil)

	require.NoError(t, store.Save(ctx, settingsWithVersion("1.0")))
	require.NoError(t, store.Save(ctx, settingsWithVersion("1.1")))

	assert.Equal(t, "1.1", store.Current().Version)
	persisted, err := Parse(adapter.files[dataPath])
	require.NoError(t, err)
	assert.Equal(t, "1.1", persisted.Version)
}

func TestStore_SaveOrdering(t *testing.T) {
	ctx := context.Background()
	adapter := newMemAdapter()
	store := NewStore(adapter, ".obsidian", nil)
	require.NoError(t, store.Save(ctx, settingsWithVersion("1.0")))

	next := settingsWithVersion("1.1", "A", "B")
	var seen *Settings
	store.OnChange(func(_ context.Context, s *Settings) error {
		seen = s
		// Rebuild runs after the backup and before anything is persisted.
		assert.Contains(t, adapter.ops, "copy "+dataPath+" .obsidian/plugins/card-board/data.1.0.json")
		persisted, err := Parse(adapter.files[dataPath])
		require.NoError(t, err)
		assert.Equal(t, "1.0", persisted.Version)
		assert.Equal(t, "1.0", VersionOf(store.current))
		return nil
	})

	require.NoError(t, store.Save(ctx, next))
	assert.Same(t, next, seen)
	assert.Same(t, next, store.Current())
}

func TestStore_ChangeHookFailureAbortsSave(t *testing.T) {
	ctx := context.Background()
	adapter := newMemAdapter()
	store := NewStore(adapter, ".obsidian", nil)
	require.NoError(t, store.Save(ctx, settingsWithVersion("1.0")))

	store.OnChange(func(context.Context, *Settings) error {
		return errors.New("host refused command")
	})

	err := store.Save(ctx, settingsWithVersion("1.0", "A"))
	require.Error(t, err)
	assert.Equal(t, "1.0", store.Current().Version)
	assert.Empty(t, store.Current().Boards())
}

func TestStore_SaveNil(t *testing.T) {
	store := NewStore(newMemAdapter(), ".obsidian", nil)
	assert.ErrorIs(t, store.Save(context.Background(), nil), ErrNilSettings)
}
