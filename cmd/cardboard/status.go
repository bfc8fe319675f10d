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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cardboard/internal/errors"
	"github.com/kraklabs/cardboard/internal/output"
	"github.com/kraklabs/cardboard/internal/ui"
	"github.com/kraklabs/cardboard/pkg/settings"
)

// StatusResult is the JSON form of 'cardboard status'.
type StatusResult struct {
	Vault           string        `json:"vault"`
	SettingsPath    string        `json:"settings_path"`
	SettingsFound   bool          `json:"settings_found"`
	SettingsVersion string        `json:"settings_version"`
	DailyNoteFormat string        `json:"daily_note_format"`
	FilterPolarity  string        `json:"filter_polarity,omitempty"`
	FilterScope     string        `json:"filter_scope,omitempty"`
	Filters         []filterEntry `json:"filters"`
	Boards          []boardEntry  `json:"boards"`
}

type filterEntry struct {
	Kind     string `json:"kind"`
	Pattern  string `json:"pattern"`
	Polarity string `json:"polarity"`
}

// runStatus executes the 'status' command: the vault's settings version,
// boards with their command ids, and effective filters.
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	vaultDir := fs.String("vault", "", "Vault directory (overrides config)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cardboard status [options]

Shows the CardBoard settings of the vault: version, boards and the id of
the command that opens each one, and the file filters applied on sync.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(globals.Config)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if *vaultDir != "" {
		cfg.Vault, cfg.dir = *vaultDir, "."
	}
	logger := newLogger(globals, false)

	result, err := collectStatus(context.Background(), cfg, logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	printStatus(result)
}

func collectStatus(ctx context.Context, cfg *Config, logger *slog.Logger) (*StatusResult, error) {
	state, err := inspectVault(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	found, err := state.vault.Adapter().Exists(ctx, state.store.SettingsPath())
	if err != nil {
		return nil, errors.Wrap(err, errors.ExitVault, "Cannot stat board settings")
	}

	global := state.settings.Global()
	result := &StatusResult{
		Vault:           state.vault.Root(),
		SettingsPath:    state.store.SettingsPath(),
		SettingsFound:   found,
		SettingsVersion: settings.VersionOf(state.settings),
		DailyNoteFormat: state.dates.Format(),
		FilterPolarity:  global.FilterPolarity,
		FilterScope:     global.FilterScope,
		Filters:         []filterEntry{},
		Boards:          boardEntries(state.settings),
	}
	for _, r := range state.filter.Rules() {
		result.Filters = append(result.Filters, filterEntry{
			Kind:     string(r.Kind),
			Pattern:  r.Pattern,
			Polarity: string(r.Polarity),
		})
	}
	return result, nil
}

func printStatus(r *StatusResult) {
	ui.Header("CardBoard Status")
	ui.Field("Vault:", 18, r.Vault)
	if !r.SettingsFound {
		ui.Field("Settings:", 18, ui.DimText("(none) "+r.SettingsPath))
	} else {
		ui.Field("Settings:", 18, r.SettingsPath)
		ui.Field("Settings version:", 18, r.SettingsVersion)
	}
	ui.Field("Daily notes:", 18, r.DailyNoteFormat)

	fmt.Fprintln(ui.Out)
	ui.SubHeader(fmt.Sprintf("Boards (%d)", len(r.Boards)))
	if len(r.Boards) == 0 {
		ui.Info("No boards configured")
	}
	for _, b := range r.Boards {
		title := b.Title
		if title == "" {
			title = ui.DimText("(untitled)")
		}
		fmt.Fprintf(ui.Out, "  %d  %s  %s  %s\n", b.Index, title, ui.DimText(b.Type), ui.DimText(b.CommandID))
	}

	fmt.Fprintln(ui.Out)
	ui.SubHeader(fmt.Sprintf("Filters (%d)", len(r.Filters)))
	if len(r.Filters) == 0 {
		fmt.Fprintf(ui.Out, "  %s\n", ui.DimText("every note is sent"))
	}
	for _, f := range r.Filters {
		fmt.Fprintf(ui.Out, "  %-5s %-10s %s\n", f.Polarity, f.Kind, f.Pattern)
	}
}
