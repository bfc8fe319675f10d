// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_SubscribeOnce(t *testing.T) {
	host, _ := Pipe()
	ch := NewChannel(host, nil)

	require.NoError(t, ch.Subscribe(func(context.Context, Event) {}))
	assert.ErrorIs(t, ch.Subscribe(func(context.Context, Event) {}), ErrAlreadySubscribed)
}

func TestChannel_SendPreservesOrder(t *testing.T) {
	host, eng := Pipe()
	ch := NewChannel(host, nil)
	ctx := context.Background()

	require.NoError(t, ch.Send(ctx, FileAdded{FilePath: "a.md"}))
	require.NoError(t, ch.Send(ctx, FileAdded{FilePath: "b.md"}))
	require.NoError(t, ch.Send(ctx, AllMarkdownLoaded{}))

	var tags []string
	for range 3 {
		b, err := eng.Recv(ctx)
		require.NoError(t, err)
		m, err := DecodeOutbound(b)
		require.NoError(t, err)
		if fa, ok := m.(FileAdded); ok {
			tags = append(tags, fa.FilePath)
			continue
		}
		tags = append(tags, m.Tag())
	}
	assert.Equal(t, []string{"a.md", "b.md", TagAllMarkdownLoaded}, tags)
}

func TestChannel_RunDeliversKnownEvents(t *testing.T) {
	host, eng := Pipe()
	ch := NewChannel(host, nil)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		events []Event
	)
	require.NoError(t, ch.Subscribe(func(_ context.Context, ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))

	for _, raw := range []string{
		`{"tag":"somethingNew","data":{}}`,
		`not json at all`,
		`{"tag":"allTasksLoaded","data":{}}`,
		`{"tag":"updateSettings","data":{"version":"0.11.0","data":{}}}`,
	} {
		require.NoError(t, eng.Send(ctx, []byte(raw)))
	}
	require.NoError(t, eng.Close())

	require.NoError(t, ch.Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, AllTasksLoaded{}, events[0])
	su, ok := events[1].(SettingsUpdated)
	require.True(t, ok)
	assert.Equal(t, "0.11.0", su.Settings.Version)
}

func TestChannel_RunStopsOnCancel(t *testing.T) {
	host, _ := Pipe()
	ch := NewChannel(host, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestChannel_SendAfterClose(t *testing.T) {
	host, _ := Pipe()
	ch := NewChannel(host, nil)
	require.NoError(t, ch.Close())

	err := ch.Send(context.Background(), AllMarkdownLoaded{})
	assert.ErrorIs(t, err, ErrClosed)
}

type nopWriteCloser struct {
	strings.Builder
	closed bool
}

func (w *nopWriteCloser) Close() error {
	w.closed = true
	return nil
}

func TestStreamTransport_LinesAndEOF(t *testing.T) {
	r := strings.NewReader("{\"tag\":\"a\"}\n\n{\"tag\":\"b\"}\n")
	w := &nopWriteCloser{}
	tr := NewStreamTransport(r, w)
	ctx := context.Background()

	b, err := tr.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"tag":"a"}`, string(b))

	b, err = tr.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"tag":"b"}`, string(b))

	_, err = tr.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, tr.Send(ctx, []byte(`{"tag":"c"}`)))
	assert.Equal(t, "{\"tag\":\"c\"}\n", w.String())

	require.NoError(t, tr.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, tr.Send(ctx, []byte(`x`)), ErrClosed)
}

func TestStreamTransport_LargeLine(t *testing.T) {
	big := strings.Repeat("x", 1<<20)
	r := strings.NewReader(`{"tag":"fileAdded","data":{"fileContents":"` + big + `"}}` + "\n")
	tr := NewStreamTransport(r, &nopWriteCloser{})

	b, err := tr.Recv(context.Background())
	require.NoError(t, err)
	assert.Greater(t, len(b), 1<<20)
}
