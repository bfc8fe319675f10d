// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cardboard/pkg/engine"
	"github.com/kraklabs/cardboard/pkg/filter"
)

type fakeVault struct {
	files    []File
	contents map[string]string
	readErr  map[string]error
	listErr  error

	mu    sync.Mutex
	reads int
}

func (v *fakeVault) MarkdownFiles(context.Context) ([]File, error) {
	if v.listErr != nil {
		return nil, v.listErr
	}
	return v.files, nil
}

func (v *fakeVault) CachedRead(_ context.Context, f File) (string, error) {
	v.mu.Lock()
	v.reads++
	v.mu.Unlock()
	if err := v.readErr[f.Path]; err != nil {
		return "", err
	}
	return v.contents[f.Path], nil
}

func newFakeVault(paths ...string) *fakeVault {
	v := &fakeVault{contents: map[string]string{}, readErr: map[string]error{}}
	for _, p := range paths {
		v.files = append(v.files, File{Path: p})
		v.contents[p] = "contents of " + p
	}
	return v
}

type recordingSender struct {
	mu      sync.Mutex
	msgs    []engine.Outbound
	failOn  int // 1-based message number to fail; 0 never
	sendErr error
}

func (s *recordingSender) Send(_ context.Context, m engine.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn > 0 && len(s.msgs)+1 == s.failOn {
		return s.sendErr
	}
	s.msgs = append(s.msgs, m)
	return nil
}

func (s *recordingSender) fileAdded() []engine.FileAdded {
	var out []engine.FileAdded
	for _, m := range s.msgs {
		if fa, ok := m.(engine.FileAdded); ok {
			out = append(out, fa)
		}
	}
	return out
}

func (s *recordingSender) endMarkers() int {
	n := 0
	for _, m := range s.msgs {
		if _, ok := m.(engine.AllMarkdownLoaded); ok {
			n++
		}
	}
	return n
}

func TestPipeline_SendsEligibleFilesThenEndMarker(t *testing.T) {
	v := newFakeVault("Archive/old.md", "Daily/2024-03-05.md", "Inbox.md", "Projects/plan.md", "Templates/day.md")
	s := &recordingSender{}
	dates, err := NewDateResolver(DailyNoteSettings{})
	require.NoError(t, err)

	p := NewPipeline(v, s, Config{
		Filter: filter.New(
			filter.Rule{Kind: filter.PathFilter, Pattern: "Archive", Polarity: filter.Deny},
			filter.Rule{Kind: filter.GlobFilter, Pattern: "Templates/**", Polarity: filter.Deny},
		),
		Dates: dates,
	}, nil)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	added := s.fileAdded()
	require.Len(t, added, 3)
	assert.Equal(t, "Daily/2024-03-05.md", added[0].FilePath)
	require.NotNil(t, added[0].FileDate)
	assert.Equal(t, "2024-03-05", *added[0].FileDate)
	assert.Equal(t, "contents of Daily/2024-03-05.md", added[0].FileContents)
	assert.Equal(t, "Inbox.md", added[1].FilePath)
	assert.Nil(t, added[1].FileDate)
	assert.Equal(t, "Projects/plan.md", added[2].FilePath)

	require.Len(t, s.msgs, 4)
	assert.IsType(t, engine.AllMarkdownLoaded{}, s.msgs[3])

	assert.Equal(t, 5, res.FilesSeen)
	assert.Equal(t, 2, res.FilesFiltered)
	assert.Equal(t, 3, res.FilesSent)
	assert.Equal(t, 1, res.FilesDated)
	assert.Zero(t, res.ReadErrors)
}

func TestPipeline_NoEligibleFiles(t *testing.T) {
	v := newFakeVault("Archive/a.md")
	s := &recordingSender{}
	p := NewPipeline(v, s, Config{
		Filter: filter.New(filter.Rule{Kind: filter.PathFilter, Pattern: "Archive", Polarity: filter.Deny}),
	}, nil)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, s.msgs, 1)
	assert.IsType(t, engine.AllMarkdownLoaded{}, s.msgs[0])
	assert.Zero(t, res.FilesSent)
	assert.Zero(t, v.reads)
}

func TestPipeline_EmptyVault(t *testing.T) {
	s := &recordingSender{}
	_, err := NewPipeline(newFakeVault(), s, Config{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.endMarkers())
}

func TestPipeline_ReadErrorSkipsFile(t *testing.T) {
	v := newFakeVault("a.md", "b.md", "c.md")
	v.readErr["b.md"] = errors.New("permission denied")
	s := &recordingSender{}

	res, err := NewPipeline(v, s, Config{}, nil).Run(context.Background())
	require.NoError(t, err)

	added := s.fileAdded()
	require.Len(t, added, 2)
	assert.Equal(t, "a.md", added[0].FilePath)
	assert.Equal(t, "c.md", added[1].FilePath)
	assert.Equal(t, 1, s.endMarkers())
	assert.Equal(t, 1, res.ReadErrors)
}

func TestPipeline_RunsOnce(t *testing.T) {
	s := &recordingSender{}
	p := NewPipeline(newFakeVault("a.md"), s, Config{}, nil)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRan)
	assert.Equal(t, 1, s.endMarkers())
}

func TestPipeline_PreservesOrderWithManyFiles(t *testing.T) {
	var paths []string
	for i := range 200 {
		paths = append(paths, fmt.Sprintf("notes/%03d.md", i))
	}
	s := &recordingSender{}
	p := NewPipeline(newFakeVault(paths...), s, Config{ReadWorkers: 8}, nil)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	added := s.fileAdded()
	require.Len(t, added, len(paths))
	for i, fa := range added {
		assert.Equal(t, paths[i], fa.FilePath)
	}
	assert.Equal(t, 1, s.endMarkers())
}

func TestPipeline_SendFailureAborts(t *testing.T) {
	sendErr := errors.New("engine gone")
	s := &recordingSender{failOn: 2, sendErr: sendErr}

	res, err := NewPipeline(newFakeVault("a.md", "b.md", "c.md"), s, Config{}, nil).Run(context.Background())
	require.ErrorIs(t, err, sendErr)
	assert.Equal(t, 1, res.FilesSent)
	assert.Zero(t, s.endMarkers())
}

func TestPipeline_EnumerationFailure(t *testing.T) {
	v := newFakeVault()
	v.listErr = errors.New("walk failed")
	_, err := NewPipeline(v, &recordingSender{}, Config{}, nil).Run(context.Background())
	assert.ErrorContains(t, err, "walk failed")
}

func TestPipeline_Progress(t *testing.T) {
	var calls [][2]int
	p := NewPipeline(newFakeVault("a.md", "b.md"), &recordingSender{}, Config{
		OnProgress: func(done, total int, _ string) { calls = append(calls, [2]int{done, total}) },
	}, nil)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}

func TestPipeline_OversizedNoteSkipped(t *testing.T) {
	v := newFakeVault("small.md", "huge.md", "tail.md")
	v.files[1].Size = 4096
	s := &recordingSender{}

	res, err := NewPipeline(v, s, Config{MessageLimit: 1024}, nil).Run(context.Background())
	require.NoError(t, err)

	added := s.fileAdded()
	require.Len(t, added, 2)
	assert.Equal(t, "small.md", added[0].FilePath)
	assert.Equal(t, "tail.md", added[1].FilePath)
	assert.Equal(t, 1, res.ReadErrors)
	assert.Equal(t, 2, v.reads, "oversized notes are never read")
}

func TestPipeline_EscapedNoteOverLimitSkipped(t *testing.T) {
	v := newFakeVault("plain.md", "quotes.md")
	// Under the on-disk limit, but every quote doubles when escaped.
	v.contents["quotes.md"] = strings.Repeat(`"`, 500)
	v.files[1].Size = 500
	s := &recordingSender{}

	res, err := NewPipeline(v, s, Config{MessageLimit: 1024}, nil).Run(context.Background())
	require.NoError(t, err)

	added := s.fileAdded()
	require.Len(t, added, 1)
	assert.Equal(t, "plain.md", added[0].FilePath)
	assert.Equal(t, 1, res.ReadErrors)
	assert.Equal(t, 1, s.endMarkers())

	// Every sent message fits the limit it was checked against.
	for _, fa := range added {
		msg, err := engine.EncodeOutbound(fa)
		require.NoError(t, err)
		assert.Less(t, len(msg)+1, 1024)
	}
}
