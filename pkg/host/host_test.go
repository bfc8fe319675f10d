// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cardboard/pkg/commands"
	"github.com/kraklabs/cardboard/pkg/view"
)

func TestHost_Commands(t *testing.T) {
	h := New("card-board")
	ctx := context.Background()

	ran := 0
	id, err := h.AddCommand(commands.Command{
		ID:       "open-card-board-plugin-0",
		Name:     "Open Today",
		Callback: func(context.Context) error { ran++; return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, "card-board:open-card-board-plugin-0", id)

	_, err = h.AddCommand(commands.Command{ID: "open-card-board-plugin-0"})
	assert.ErrorIs(t, err, ErrDuplicateCommand)

	require.NoError(t, h.Execute(ctx, id))
	assert.Equal(t, 1, ran)
	assert.Equal(t, []CommandEntry{{ID: id, Name: "Open Today"}}, h.Commands())

	h.RemoveCommand(id)
	h.RemoveCommand("never-added")
	assert.Empty(t, h.Commands())
	assert.ErrorIs(t, h.Execute(ctx, id), ErrUnknownCommand)
}

func TestHost_Ribbon(t *testing.T) {
	h := New("card-board")
	ctx := context.Background()

	clicked := false
	h.AddIcon("card-board", "<svg/>")
	h.AddRibbonIcon("card-board", "CardBoard", func(context.Context) error {
		clicked = true
		return nil
	})

	assert.True(t, h.HasIcon("card-board"))
	require.NoError(t, h.ClickRibbon(ctx, "card-board"))
	assert.True(t, clicked)
	assert.ErrorIs(t, h.ClickRibbon(ctx, "missing"), ErrUnknownRibbonItem)
	assert.Len(t, h.Ribbon(), 1)
}

func TestHost_Workspace(t *testing.T) {
	h := New("card-board")
	ctx := context.Background()
	require.NoError(t, h.RegisterView("board", func() any { return view.NewBoard() }))
	assert.Error(t, h.RegisterView("board", func() any { return nil }))

	leaf, err := h.OpenLeaf(ctx, view.State{Type: "board", Active: true})
	require.NoError(t, err)
	assert.IsType(t, &view.Board{}, leaf.View())
	assert.Same(t, leaf, h.ActiveLeaf())

	other, err := h.OpenLeaf(ctx, view.State{Type: "unknown"})
	require.NoError(t, err)
	assert.Nil(t, other.View())

	h.RevealLeaf(other)
	assert.Same(t, other, h.ActiveLeaf())

	h.DetachLeavesOfType("board")
	assert.Empty(t, h.LeavesOfType("board"))
	assert.Len(t, h.LeavesOfType("unknown"), 1)
}
