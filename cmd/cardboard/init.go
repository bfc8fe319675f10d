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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cardboard/internal/errors"
	"github.com/kraklabs/cardboard/internal/output"
	"github.com/kraklabs/cardboard/internal/ui"
	"github.com/kraklabs/cardboard/pkg/vault"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force          bool
	vault, engine  string
	firstDayOfWeek int
	readWorkers    int
	metricsAddr    string
}

// runInit executes the 'init' command, writing .cardboard.yaml.
func runInit(args []string, globals GlobalFlags) {
	f := parseInitFlags(args)

	path := globals.Config
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			errors.FatalError(errors.NewInternalError("Cannot get current directory", err.Error(), "", err), globals.JSON)
		}
		path = ConfigPath(cwd)
	}
	if _, err := os.Stat(path); err == nil && !f.force {
		errors.FatalError(errors.NewInputError(
			"Configuration already exists",
			path+" already exists",
			"Use --force to overwrite it",
		), globals.JSON)
	}

	cfg, err := initConfig(path, f)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if err := SaveConfig(path, cfg); err != nil {
		errors.FatalError(errors.Wrap(err, errors.ExitConfig, "Cannot write configuration"), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]string{"config": path, "vault": cfg.VaultPath()})
		return
	}
	if globals.Quiet {
		return
	}
	ui.Successf("Created %s", path)
	if _, err := os.Stat(filepath.Join(cfg.VaultPath(), vault.DefaultConfigDir)); err != nil {
		ui.Warningf("%s has no %s directory; is it an Obsidian vault?", cfg.VaultPath(), vault.DefaultConfigDir)
	}
	fmt.Fprintln(ui.Out)
	ui.SubHeader("Next steps")
	fmt.Fprintf(ui.Out, "  cardboard status   %s\n", ui.DimText("show boards and filters"))
	fmt.Fprintf(ui.Out, "  cardboard files    %s\n", ui.DimText("list the notes a sync would send"))
	fmt.Fprintf(ui.Out, "  cardboard sync     %s\n", ui.DimText("run a session"))
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite an existing configuration")
	fs.StringVar(&f.vault, "vault", ".", "Vault directory")
	fs.StringVar(&f.engine, "engine", "", "Engine command line (empty uses the headless engine)")
	fs.IntVar(&f.firstDayOfWeek, "first-day-of-week", 1, "First day of the week, 0 (Sunday) to 6 (Saturday)")
	fs.IntVar(&f.readWorkers, "read-workers", 0, "Concurrent note reads (0 for the default)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics during sync")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cardboard init [options]

Creates %s in the current directory.

Options:
`, ConfigFile)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  cardboard init --vault ~/notes
  cardboard init --vault ~/notes --engine "node engine.js" --first-day-of-week 0
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

// initConfig builds the configuration written by init. The vault is
// stored relative to the config file when it lies below it.
func initConfig(path string, f initFlags) (*Config, error) {
	cfg := DefaultConfig()
	cfg.dir = filepath.Dir(path)
	cfg.FirstDayOfWeek = f.firstDayOfWeek
	cfg.ReadWorkers = f.readWorkers
	cfg.MetricsAddr = f.metricsAddr
	if fields := strings.Fields(f.engine); len(fields) > 0 {
		cfg.Engine = EngineConfig{Command: fields[0], Args: fields[1:]}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(f.vault)
	if err != nil {
		return nil, errors.NewInputError("Invalid vault path", err.Error(), "")
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, errors.NewNotFoundError(
			"Vault not found",
			abs+" is not a directory",
			"Pass the vault directory with --vault",
		)
	}
	cfg.Vault = abs
	if dir, err := filepath.Abs(cfg.dir); err == nil {
		if rel, err := filepath.Rel(dir, abs); err == nil && !strings.HasPrefix(rel, "..") {
			cfg.Vault = rel
		}
	}
	return cfg, nil
}
