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
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/cardboard/internal/errors"
	"github.com/kraklabs/cardboard/internal/output"
	"github.com/kraklabs/cardboard/internal/ui"
	"github.com/kraklabs/cardboard/pkg/commands"
	"github.com/kraklabs/cardboard/pkg/ingestion"
	"github.com/kraklabs/cardboard/pkg/settings"
	"github.com/kraklabs/cardboard/pkg/view"
)

// unloadTimeout bounds the shutdown of a session.
const unloadTimeout = 10 * time.Second

// syncResult is the outcome of a sync session.
type syncResult struct {
	Vault           string         `json:"vault"`
	Engine          string         `json:"engine"`
	SettingsVersion string         `json:"settings_version"`
	FilesSeen       int            `json:"files_seen"`
	FilesFiltered   int            `json:"files_filtered"`
	FilesSent       int            `json:"files_sent"`
	FilesDated      int            `json:"files_dated"`
	ReadErrors      int            `json:"read_errors"`
	DurationMS      int64          `json:"duration_ms"`
	Boards          []boardEntry   `json:"boards"`
	Commands        []commandEntry `json:"commands"`
	Opened          *boardEntry    `json:"opened,omitempty"`
}

type commandEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// runSync executes the 'sync' command: one full session against the vault.
//
// Settings are loaded, the engine is started, every eligible note is sent
// and, once the engine reports that all tasks are loaded, one command per
// board is registered. With --open the matching board command is run.
func runSync(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	vaultDir := fs.String("vault", "", "Vault directory (overrides config)")
	engineCmd := fs.String("engine", "", "Engine command line (overrides config; empty uses the headless engine)")
	readWorkers := fs.Int("read-workers", 0, "Concurrent note reads (overrides config)")
	timeout := fs.Duration("timeout", 0, "How long to wait for the engine to load all tasks (overrides config)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	open := fs.String("open", "", "Open a board by index or title once loaded")
	debug := fs.Bool("debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cardboard sync [options]

Runs a CardBoard session: loads the plugin settings, streams every eligible
markdown note to the engine and registers one "Open <board>" command per
board once the engine has loaded all tasks.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  cardboard sync
  cardboard sync --open 0
  cardboard sync --engine "node engine.js" --open "Weekly review"
  cardboard --json sync --metrics-addr :9464
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		errors.FatalError(errors.NewInputError(
			"Unexpected arguments",
			strings.Join(fs.Args(), " "),
			"Run 'cardboard sync --help'",
		), globals.JSON)
	}

	cfg, err := LoadConfig(globals.Config)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if *vaultDir != "" {
		cfg.Vault, cfg.dir = *vaultDir, "."
	}
	if fields := strings.Fields(*engineCmd); len(fields) > 0 {
		cfg.Engine = EngineConfig{Command: fields[0], Args: fields[1:]}
	}
	if *readWorkers > 0 {
		cfg.ReadWorkers = *readWorkers
	}
	if *timeout > 0 {
		cfg.SettleTimeout = *timeout
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	logger := newLogger(globals, *debug)

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, logger)
		defer func() { _ = srv.Close() }()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutdown.signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := runSession(ctx, cfg, *open, NewProgressConfig(globals), logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	if !globals.Quiet {
		printSyncResult(result)
	}
}

// runSession runs one session to completion and shuts it down.
func runSession(ctx context.Context, cfg *Config, openQuery string, progress ProgressConfig, logger *slog.Logger) (result *syncResult, err error) {
	start := time.Now()
	prog := newIngestProgress(progress)

	s, err := openSession(cfg, prog.Func(), logger)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	defer func() {
		unloadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unloadTimeout)
		defer cancel()
		uerr := s.plugin.OnUnload(unloadCtx)
		switch {
		case uerr == nil:
		case err == nil && cfg.Engine.Command != "":
			err = errors.NewEngineError("Engine did not shut down cleanly", uerr.Error(), "Check the engine's stderr output", uerr)
		default:
			logger.Warn("sync.unload.error", "err", uerr)
		}
	}()

	ingested, err := loadSession(ctx, s, cfg.SettleTimeout, progress)
	prog.Finish()
	if err != nil {
		return nil, err
	}

	current := s.plugin.Store().Current()
	result = &syncResult{
		Vault:           s.vault.Root(),
		Engine:          engineLabel(cfg),
		SettingsVersion: settings.VersionOf(current),
		FilesSeen:       ingested.FilesSeen,
		FilesFiltered:   ingested.FilesFiltered,
		FilesSent:       ingested.FilesSent,
		FilesDated:      ingested.FilesDated,
		ReadErrors:      ingested.ReadErrors,
		Boards:          boardEntries(current),
	}
	for _, c := range s.host.Commands() {
		result.Commands = append(result.Commands, commandEntry{ID: c.ID, Name: c.Name})
	}

	if openQuery != "" {
		opened, err := openBoard(ctx, s, current, openQuery)
		if err != nil {
			return nil, err
		}
		result.Opened = opened
	}

	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

// loadSession ingests the vault and, concurrently, waits for the engine to
// report that all tasks are loaded. A spinner runs between the end of
// ingestion and the engine's reply.
func loadSession(ctx context.Context, s *session, settle time.Duration, progress ProgressConfig) (*ingestion.Result, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		ingested *ingestion.Result
		spinner  *progressbar.ProgressBar
	)
	defer func() {
		if spinner != nil {
			_ = spinner.Finish()
		}
	}()

	g.Go(func() error {
		res, err := s.plugin.OnLayoutReady(gctx)
		if err != nil {
			return errors.NewEngineError(
				"Session failed",
				err.Error(),
				"Check the engine command and the vault configuration",
				err,
			)
		}
		ingested = res
		if !s.plugin.Activated() {
			if spinner = NewSpinner(progress, "Waiting for engine"); spinner != nil {
				_ = spinner.RenderBlank()
			}
		}
		return nil
	})
	g.Go(func() error {
		waitCtx, cancel := context.WithTimeout(gctx, settle)
		defer cancel()
		err := s.plugin.Wait(waitCtx)
		switch {
		case err == nil:
			return nil
		case stderrors.Is(err, context.DeadlineExceeded):
			return errors.NewEngineError(
				"Engine did not finish loading tasks",
				fmt.Sprintf("no allTasksLoaded within %s", settle),
				"Raise settle_timeout or --timeout, or check the engine's stderr output",
				err,
			)
		default:
			return errors.NewEngineError(
				"Engine stopped before loading tasks",
				err.Error(),
				"Check the engine's stderr output",
				err,
			)
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ingested, nil
}

// openBoard runs the command of the board matching query: a board index or
// a title.
func openBoard(ctx context.Context, s *session, current *settings.Settings, query string) (*boardEntry, error) {
	boards := boardEntries(current)
	index, err := resolveBoard(current, query)
	if err != nil {
		return nil, err
	}

	ids := s.plugin.Commands().IDs()
	if index >= len(ids) {
		return nil, errors.NewInternalError("Board command missing", fmt.Sprintf("no command for board %d", index), "", nil)
	}
	if err := s.host.Execute(ctx, ids[index]); err != nil {
		return nil, errors.NewInternalError("Cannot open board", err.Error(), "", err)
	}

	leaf := s.host.ActiveLeaf()
	if leaf == nil {
		return nil, errors.NewInternalError("Cannot open board", view.ErrNoBoardView.Error(), "", view.ErrNoBoardView)
	}
	if b, ok := leaf.View().(*view.Board); ok {
		index = b.BoardIndex()
	}
	return &boards[index], nil
}

// resolveBoard maps a board index or title to a board index.
func resolveBoard(s *settings.Settings, query string) (int, error) {
	n := len(s.Boards())
	if i, err := strconv.Atoi(query); err == nil {
		if i < 0 || i >= n {
			return -1, errors.NewNotFoundError(
				"Board not found",
				fmt.Sprintf("board index %d is out of range (%d boards)", i, n),
				"Run 'cardboard status' to list the boards",
			)
		}
		return i, nil
	}
	i, ok := commands.FindBoard(s, query)
	if !ok {
		return -1, errors.NewNotFoundError(
			"Board not found",
			fmt.Sprintf("no board title matches %q", query),
			"Run 'cardboard status' to list the boards",
		)
	}
	return i, nil
}

func engineLabel(cfg *Config) string {
	if cfg.Engine.Command == "" {
		return "headless"
	}
	return strings.Join(append([]string{cfg.Engine.Command}, cfg.Engine.Args...), " ")
}

// serveMetrics exposes /metrics on addr until the returned server is
// closed.
func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
	return srv
}

func printSyncResult(r *syncResult) {
	ui.Header("CardBoard Sync")
	ui.Field("Vault:", 12, r.Vault)
	ui.Field("Engine:", 12, r.Engine)
	version := r.SettingsVersion
	if version == "" {
		version = ui.DimText("(no settings)")
	}
	ui.Field("Settings:", 12, version)
	ui.Field("Notes:", 12, fmt.Sprintf("%s sent, %d filtered, %d dated",
		ui.CountText(r.FilesSent), r.FilesFiltered, r.FilesDated))
	ui.Field("Duration:", 12, (time.Duration(r.DurationMS) * time.Millisecond).String())
	if r.ReadErrors > 0 {
		ui.Warningf("%d notes could not be read; see the log", r.ReadErrors)
	}

	fmt.Fprintln(ui.Out)
	if len(r.Commands) == 0 {
		ui.Info("No boards configured")
		return
	}
	ui.SubHeader("Commands")
	for _, c := range r.Commands {
		fmt.Fprintf(ui.Out, "  %s  %s\n", c.Name, ui.DimText(c.ID))
	}

	if r.Opened != nil {
		fmt.Fprintln(ui.Out)
		ui.Successf("Opened board %d: %s", r.Opened.Index, r.Opened.Title)
	}
}
