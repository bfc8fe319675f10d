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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cardboard/internal/errors"
	"github.com/kraklabs/cardboard/internal/output"
	"github.com/kraklabs/cardboard/internal/ui"
	"github.com/kraklabs/cardboard/pkg/settings"
)

// applyResult is the JSON form of 'cardboard settings apply'.
type applyResult struct {
	SettingsPath    string         `json:"settings_path"`
	PreviousVersion string         `json:"previous_version"`
	Version         string         `json:"version"`
	Backup          string         `json:"backup,omitempty"`
	Commands        []commandEntry `json:"commands"`
}

// runSettings dispatches the 'settings' subcommands.
func runSettings(args []string, globals GlobalFlags) {
	usage := func() {
		fmt.Fprintf(os.Stderr, `Usage: cardboard settings <apply FILE | show> [options]

Subcommands:
  apply FILE   Replace the plugin settings with FILE. A file with a new
               version backs up the current settings first.
  show         Print the current plugin settings
`)
	}
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	switch args[0] {
	case "apply":
		runSettingsApply(args[1:], globals)
	case "show":
		runSettingsShow(args[1:], globals)
	case "-h", "--help", "help":
		usage()
	default:
		errors.FatalError(errors.NewInputError(
			"Unknown settings subcommand",
			args[0],
			"Use 'cardboard settings apply FILE' or 'cardboard settings show'",
		), globals.JSON)
	}
}

func runSettingsApply(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("settings apply", flag.ExitOnError)
	vaultDir := fs.String("vault", "", "Vault directory (overrides config)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Missing settings file",
			"settings apply takes exactly one file",
			"Run 'cardboard settings apply path/to/data.json'",
		), globals.JSON)
	}

	cfg, err := LoadConfig(globals.Config)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if *vaultDir != "" {
		cfg.Vault, cfg.dir = *vaultDir, "."
	}
	logger := newLogger(globals, false)

	result, err := applySettings(context.Background(), cfg, fs.Arg(0), logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	if globals.Quiet {
		return
	}
	if result.Backup != "" {
		ui.Infof("Backed up version %s to %s", result.PreviousVersion, result.Backup)
	}
	ui.Successf("Saved settings version %s to %s", result.Version, result.SettingsPath)
	for _, c := range result.Commands {
		fmt.Fprintf(ui.Out, "  %s  %s\n", c.Name, ui.DimText(c.ID))
	}
}

// applySettings runs the save transaction for the settings in file:
// backup on version change, command rebuild, replace, persist.
func applySettings(ctx context.Context, cfg *Config, file string, logger *slog.Logger) (*applyResult, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, errors.ExitInput, "Cannot read settings file")
	}
	next, err := settings.Parse(data)
	if err != nil {
		return nil, errors.NewInputError("Invalid settings file", err.Error(), "Check the JSON in "+file)
	}
	if next == nil {
		return nil, errors.NewInputError("Empty settings file", file+" holds no settings", "Pass a data.json with a version and boards")
	}

	s, err := openSession(cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	store := s.plugin.Store()
	previous := settings.VersionOf(store.Current())

	if err := s.plugin.SaveSettings(ctx, next); err != nil {
		return nil, errors.Wrap(err, errors.ExitVault, "Cannot save settings")
	}

	result := &applyResult{
		SettingsPath:    store.SettingsPath(),
		PreviousVersion: previous,
		Version:         next.Version,
		Commands:        []commandEntry{},
	}
	if previous != "" && previous != next.Version {
		backup := store.BackupPath(previous)
		if ok, _ := s.vault.Adapter().Exists(ctx, backup); ok {
			result.Backup = backup
		}
	}
	for _, c := range s.host.Commands() {
		result.Commands = append(result.Commands, commandEntry{ID: c.ID, Name: c.Name})
	}
	return result, nil
}

func runSettingsShow(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("settings show", flag.ExitOnError)
	vaultDir := fs.String("vault", "", "Vault directory (overrides config)")
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

	state, err := inspectVault(context.Background(), cfg, logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if state.settings == nil {
		errors.FatalError(errors.NewNotFoundError(
			"No board settings",
			state.store.SettingsPath()+" is missing or unreadable",
			"Create boards in the app or run 'cardboard settings apply FILE'",
		), globals.JSON)
	}
	b, err := settings.Marshal(state.settings)
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot encode settings", err.Error(), "", err), globals.JSON)
	}
	if err := output.JSON(json.RawMessage(b)); err != nil {
		errors.FatalError(err, globals.JSON)
	}
}
