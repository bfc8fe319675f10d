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
	"github.com/kraklabs/cardboard/pkg/filter"
	"github.com/kraklabs/cardboard/pkg/ingestion"
	"github.com/kraklabs/cardboard/pkg/settings"
	"github.com/kraklabs/cardboard/pkg/vault"
)

// vaultState is a read-only view of a vault's CardBoard state.
type vaultState struct {
	vault    *vault.FSVault
	store    *settings.Store
	settings *settings.Settings
	filter   *filter.Filter
	daily    ingestion.DailyNoteSettings
	dates    *ingestion.DateResolver
}

// inspectVault loads the settings, filter and daily-note format without
// starting a session.
func inspectVault(ctx context.Context, cfg *Config, logger *slog.Logger) (*vaultState, error) {
	v, err := vault.Open(cfg.VaultPath(), logger)
	if err != nil {
		return nil, errors.NewVaultError(
			"Cannot open vault",
			err.Error(),
			"Check the vault path in "+ConfigFile+" or set CARDBOARD_VAULT",
			err,
		)
	}
	adapter := v.Adapter()

	store := settings.NewStore(adapter, v.ConfigDir(), logger)
	s, err := store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ExitVault, "Cannot read board settings")
	}

	daily, err := vault.ReadDailyNoteSettings(ctx, adapter, v.ConfigDir())
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read daily notes settings",
			err.Error(),
			"Fix the daily-notes.json file in the vault's "+v.ConfigDir()+" directory",
			err,
		)
	}
	dates, err := ingestion.NewDateResolver(daily)
	if err != nil {
		logger.Warn("files.daily_notes.format_invalid", "format", daily.Format, "err", err)
		dates, _ = ingestion.NewDateResolver(ingestion.DailyNoteSettings{})
	}

	return &vaultState{
		vault:    v,
		store:    store,
		settings: s,
		filter:   filter.FromSettings(s),
		daily:    daily,
		dates:    dates,
	}, nil
}

// fileEntry is one markdown note as listed by 'files'.
type fileEntry struct {
	Path    string  `json:"path"`
	Date    *string `json:"date"`
	Allowed bool    `json:"allowed"`
}

// runFiles executes the 'files' command: a dry run of ingestion that lists
// the notes a session would send and the date derived for each.
func runFiles(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("files", flag.ExitOnError)
	vaultDir := fs.String("vault", "", "Vault directory (overrides config)")
	all := fs.Bool("all", false, "Also list notes excluded by the board filters")
	datedOnly := fs.Bool("dated", false, "Only list notes with a daily-note date")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cardboard files [options]

Lists the markdown notes a sync would send to the engine, in send order,
with the daily-note date derived from each file name. With --json each note
is printed as one JSON line.

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
	ctx := context.Background()

	state, err := inspectVault(ctx, cfg, logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	entries, err := listFiles(ctx, state, *all)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if *datedOnly {
		kept := entries[:0]
		for _, e := range entries {
			if e.Date != nil {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if globals.JSON {
		if err := output.Lines(os.Stdout, entries); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	printFiles(entries, state.dates.Format())
}

// listFiles returns the vault's markdown notes with their filter decision
// and date. Excluded notes are only returned when all is set.
func listFiles(ctx context.Context, state *vaultState, all bool) ([]fileEntry, error) {
	files, err := state.vault.MarkdownFiles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ExitVault, "Cannot list vault notes")
	}

	entries := make([]fileEntry, 0, len(files))
	for _, f := range files {
		allowed := state.filter.IsAllowed(f.Path)
		if !allowed && !all {
			continue
		}
		entries = append(entries, fileEntry{
			Path:    f.Path,
			Date:    state.dates.Resolve(f.Path),
			Allowed: allowed,
		})
	}
	return entries, nil
}

func printFiles(entries []fileEntry, format string) {
	sent, dated := 0, 0
	for _, e := range entries {
		switch {
		case !e.Allowed:
			fmt.Fprintf(ui.Out, "  %s %s\n", ui.DimText(e.Path), ui.DimText("(filtered)"))
			continue
		case e.Date != nil:
			fmt.Fprintf(ui.Out, "  %s  %s\n", e.Path, ui.Cyan.Sprint(*e.Date))
			dated++
		default:
			fmt.Fprintf(ui.Out, "  %s\n", e.Path)
		}
		sent++
	}
	fmt.Fprintln(ui.Out)
	ui.Infof("%s notes would be sent, %d dated with format %s", ui.CountText(sent), dated, format)
}
