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

// Package main implements the cardboard CLI, a headless host for CardBoard
// sessions over an Obsidian vault.
//
// Usage:
//
//	cardboard init                  Create .cardboard.yaml
//	cardboard sync [--open BOARD]   Run a session: ingest the vault, expose boards
//	cardboard files                 List the notes a session would send
//	cardboard status [--json]       Show settings, boards, filters and commands
//	cardboard settings apply FILE   Replace the plugin settings
package main

import (
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cardboard/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags are accepted before the command name.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
	Config  string
}

func main() {
	var (
		globals     GlobalFlags
		showVersion bool
	)
	flag.CommandLine.SetInterspersed(false)
	flag.BoolVar(&globals.JSON, "json", false, "Machine-readable output on stdout")
	flag.BoolVarP(&globals.Quiet, "quiet", "q", false, "Only print errors")
	flag.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	flag.CountVarP(&globals.Verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flag.StringVar(&globals.Config, "config", "", "Path to .cardboard.yaml (default: ./"+ConfigFile+")")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `cardboard - headless CardBoard host

cardboard loads a vault's CardBoard settings, streams its markdown notes
to a board engine and registers one "Open <board>" command per board.

Usage:
  cardboard [global options] <command> [options]

Commands:
  init              Create %s
  sync              Run a session against the vault and engine
  files             List the notes a session would send, with their dates
  status            Show settings version, boards, filters and command ids
  settings apply    Replace the plugin settings from a file
  settings show     Print the current plugin settings

Global Options:
`, ConfigFile)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  cardboard init --vault ~/notes
  cardboard sync
  cardboard sync --engine "node engine.js" --open "Weekly"
  cardboard --json status

Environment Variables:
  CARDBOARD_VAULT    Vault directory (overrides the config file)
  CARDBOARD_ENGINE   Engine command line (overrides the config file)
  NO_COLOR           Disable colored output
`)
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("cardboard version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	// stdout carries only JSON in --json mode.
	if globals.JSON {
		globals.Quiet = true
		ui.Out = os.Stderr
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]
	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "sync":
		runSync(cmdArgs, globals)
	case "files":
		runFiles(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "settings":
		runSettings(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

// newLogger returns the CLI's stderr logger. Quiet mode keeps warnings
// and errors; each -v lowers the level by one step.
func newLogger(globals GlobalFlags, debug bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case debug || globals.Verbose > 1:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
