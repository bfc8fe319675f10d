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

// Package view manages the board view: at most one instance exists, and it
// shows one board at a time.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Type is the view type registered for the board view.
const Type = "card-board-view"

// ErrNoBoardView is returned when the workspace does not produce a board
// view for a freshly opened leaf.
var ErrNoBoardView = errors.New("view: workspace did not create a board view")

// State describes the view a leaf should host.
type State struct {
	Type   string
	Active bool
}

// Leaf is a workspace slot hosting a view.
type Leaf interface {
	View() any
}

// BoardView is the board view's control surface.
type BoardView interface {
	SetBoardIndex(index int)
}

// Workspace is the host's view layout.
type Workspace interface {
	DetachLeavesOfType(viewType string)
	OpenLeaf(ctx context.Context, state State) (Leaf, error)
	LeavesOfType(viewType string) []Leaf
	RevealLeaf(leaf Leaf)
}

// Coordinator opens and closes the board view.
type Coordinator struct {
	ws     Workspace
	logger *slog.Logger

	mu sync.Mutex
}

// NewCoordinator creates a coordinator. If logger is nil, slog.Default()
// is used.
func NewCoordinator(ws Workspace, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{ws: ws, logger: logger}
}

// Activate replaces any board view with a fresh one showing board index
// and brings it into focus.
func (c *Coordinator) Activate(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.DetachLeavesOfType(Type)

	if _, err := c.ws.OpenLeaf(ctx, State{Type: Type, Active: true}); err != nil {
		return fmt.Errorf("open board view: %w", err)
	}

	leaves := c.ws.LeavesOfType(Type)
	if len(leaves) == 0 {
		return ErrNoBoardView
	}
	leaf := leaves[0]
	bv, ok := leaf.View().(BoardView)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrNoBoardView, leaf.View())
	}
	bv.SetBoardIndex(index)
	c.ws.RevealLeaf(leaf)

	c.logger.Debug("view.activate", "board", index)
	return nil
}

// Deactivate detaches every board view.
func (c *Coordinator) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.DetachLeavesOfType(Type)
	c.logger.Debug("view.deactivate")
}

// Board is the board view instance created for each leaf.
type Board struct {
	mu    sync.Mutex
	index int
}

// NewBoard returns a board view showing board 0.
func NewBoard() *Board { return &Board{} }

// SetBoardIndex selects the board to show.
func (b *Board) SetBoardIndex(index int) {
	b.mu.Lock()
	b.index = index
	b.mu.Unlock()
}

// BoardIndex returns the board being shown.
func (b *Board) BoardIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index
}
