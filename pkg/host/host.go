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

// Package host is an in-memory host application: a command palette, a
// ribbon, registered view types and a workspace of leaves. The CLI runs
// headless sessions against it and tests use it in place of a real UI.
package host

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/kraklabs/cardboard/pkg/commands"
	"github.com/kraklabs/cardboard/pkg/view"
)

var (
	// ErrUnknownCommand is returned by Execute for an unregistered id.
	ErrUnknownCommand = errors.New("host: unknown command")
	// ErrDuplicateCommand is returned when a command id is registered twice.
	ErrDuplicateCommand = errors.New("host: command already registered")
	// ErrUnknownRibbonItem is returned by ClickRibbon for an unknown icon.
	ErrUnknownRibbonItem = errors.New("host: unknown ribbon item")
)

// RibbonItem is a clickable icon in the side ribbon.
type RibbonItem struct {
	Icon    string
	Title   string
	OnClick func(ctx context.Context) error
}

// Leaf is a workspace slot.
type Leaf struct {
	viewType string
	view     any
}

// View returns the view hosted by the leaf, nil when the view type has no
// registered factory.
func (l *Leaf) View() any { return l.view }

// ViewType returns the type the leaf was opened with.
func (l *Leaf) ViewType() string { return l.viewType }

// Host is an in-memory host. The zero value is not usable; use New.
type Host struct {
	pluginID string

	mu       sync.Mutex
	commands map[string]commands.Command
	order    []string
	views    map[string]func() any
	icons    map[string]string
	ribbon   []RibbonItem
	leaves   []*Leaf
	active   *Leaf
}

// New returns a host that qualifies command ids with pluginID.
func New(pluginID string) *Host {
	return &Host{
		pluginID: pluginID,
		commands: make(map[string]commands.Command),
		views:    make(map[string]func() any),
		icons:    make(map[string]string),
	}
}

// AddCommand registers c under "<pluginID>:<c.ID>".
func (h *Host) AddCommand(c commands.Command) (string, error) {
	id := h.pluginID + ":" + c.ID
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.commands[id]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateCommand, id)
	}
	h.commands[id] = c
	h.order = append(h.order, id)
	return id, nil
}

// RemoveCommand unregisters id. Unknown ids are ignored.
func (h *Host) RemoveCommand(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.commands, id)
	h.order = slices.DeleteFunc(h.order, func(s string) bool { return s == id })
}

// CommandEntry is a registered command as listed by Commands.
type CommandEntry struct {
	ID   string
	Name string
}

// Commands lists registered commands in registration order.
func (h *Host) Commands() []CommandEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]CommandEntry, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, CommandEntry{ID: id, Name: h.commands[id].Name})
	}
	return out
}

// Execute runs the command registered as id.
func (h *Host) Execute(ctx context.Context, id string) error {
	h.mu.Lock()
	c, ok := h.commands[id]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	if c.Callback == nil {
		return nil
	}
	return c.Callback(ctx)
}

// RegisterView registers the factory for viewType.
func (h *Host) RegisterView(viewType string, factory func() any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.views[viewType]; ok {
		return fmt.Errorf("host: view type %q already registered", viewType)
	}
	h.views[viewType] = factory
	return nil
}

// AddIcon registers an SVG icon under name.
func (h *Host) AddIcon(name, svg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.icons[name] = svg
}

// HasIcon reports whether name was registered.
func (h *Host) HasIcon(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.icons[name]
	return ok
}

// AddRibbonIcon adds a ribbon entry.
func (h *Host) AddRibbonIcon(icon, title string, onClick func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ribbon = append(h.ribbon, RibbonItem{Icon: icon, Title: title, OnClick: onClick})
}

// Ribbon lists ribbon entries.
func (h *Host) Ribbon() []RibbonItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.ribbon)
}

// ClickRibbon clicks the first ribbon entry with the given icon.
func (h *Host) ClickRibbon(ctx context.Context, icon string) error {
	h.mu.Lock()
	idx := slices.IndexFunc(h.ribbon, func(r RibbonItem) bool { return r.Icon == icon })
	var item RibbonItem
	if idx >= 0 {
		item = h.ribbon[idx]
	}
	h.mu.Unlock()
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRibbonItem, icon)
	}
	return item.OnClick(ctx)
}

// DetachLeavesOfType closes every leaf hosting viewType.
func (h *Host) DetachLeavesOfType(viewType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaves = slices.DeleteFunc(h.leaves, func(l *Leaf) bool { return l.viewType == viewType })
	if h.active != nil && h.active.viewType == viewType {
		h.active = nil
	}
}

// OpenLeaf opens a new leaf for state.Type.
func (h *Host) OpenLeaf(ctx context.Context, state view.State) (view.Leaf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	leaf := &Leaf{viewType: state.Type}
	if factory, ok := h.views[state.Type]; ok {
		leaf.view = factory()
	}
	h.leaves = append(h.leaves, leaf)
	if state.Active {
		h.active = leaf
	}
	return leaf, nil
}

// LeavesOfType lists the leaves hosting viewType, oldest first.
func (h *Host) LeavesOfType(viewType string) []view.Leaf {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []view.Leaf
	for _, l := range h.leaves {
		if l.viewType == viewType {
			out = append(out, l)
		}
	}
	return out
}

// RevealLeaf focuses leaf.
func (h *Host) RevealLeaf(leaf view.Leaf) {
	l, ok := leaf.(*Leaf)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = l
}

// ActiveLeaf returns the focused leaf, or nil.
func (h *Host) ActiveLeaf() *Leaf {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}
