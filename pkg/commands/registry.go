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

// Package commands keeps the host's command palette in step with the
// board configurations: one "open board" command per board.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/kraklabs/cardboard/pkg/settings"
)

// commandPrefix is the local id of every board command; the board index
// is appended.
const commandPrefix = "open-card-board-plugin-"

// Command is a palette entry.
type Command struct {
	// ID is local to the plugin. The host may qualify it.
	ID       string
	Name     string
	Callback func(ctx context.Context) error
}

// Host registers and removes palette commands.
type Host interface {
	// AddCommand registers c and returns the identifier under which the
	// host tracks it.
	AddCommand(c Command) (string, error)
	RemoveCommand(id string)
}

// Activator shows the board view at a board index.
type Activator interface {
	Activate(ctx context.Context, index int) error
}

// Registry owns the set of board commands registered with the host.
type Registry struct {
	host      Host
	activator Activator
	logger    *slog.Logger

	mu  sync.Mutex
	ids []string
}

// NewRegistry creates an empty registry. If logger is nil, slog.Default()
// is used.
func NewRegistry(host Host, activator Activator, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{host: host, activator: activator, logger: logger}
}

// CommandID is the local id of the command opening board i.
func CommandID(i int) string {
	return commandPrefix + strconv.Itoa(i)
}

// CommandName is the palette label for a board.
func CommandName(b settings.BoardConfig) string {
	title := b.Title()
	if title == "" {
		title = "Untitled board"
	}
	return "Open " + title
}

// Rebuild removes every command registered by a previous rebuild, then
// registers one command per board of s, in order. Nil settings leave no
// commands.
//
// If the host rejects a command, Rebuild stops and returns the error; the
// commands registered so far stay tracked and are removed by the next
// rebuild.
func (r *Registry) Rebuild(ctx context.Context, s *settings.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.ids)
	for _, id := range r.ids {
		r.host.RemoveCommand(id)
	}
	r.ids = nil

	for i, board := range s.Boards() {
		cmd := Command{
			ID:       CommandID(i),
			Name:     CommandName(board),
			Callback: r.opener(i),
		}
		id, err := r.host.AddCommand(cmd)
		if err != nil {
			return fmt.Errorf("register %s: %w", cmd.ID, err)
		}
		r.ids = append(r.ids, id)
	}

	r.logger.Info("commands.rebuild.complete", "removed", removed, "registered", len(r.ids))
	return nil
}

func (r *Registry) opener(index int) func(context.Context) error {
	return func(ctx context.Context) error {
		return r.activator.Activate(ctx, index)
	}
}

// IDs returns the host identifiers of the registered commands, in board
// order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// FindBoard returns the index of the board whose title best matches query.
// A case-insensitive exact title wins; otherwise the best fuzzy match.
func FindBoard(s *settings.Settings, query string) (int, bool) {
	boards := s.Boards()
	if len(boards) == 0 || strings.TrimSpace(query) == "" {
		return -1, false
	}

	titles := make([]string, len(boards))
	for i, b := range boards {
		titles[i] = b.Title()
		if strings.EqualFold(titles[i], query) {
			return i, true
		}
	}

	matches := fuzzy.Find(query, titles)
	if len(matches) == 0 {
		return -1, false
	}
	return matches[0].Index, true
}
