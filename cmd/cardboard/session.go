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
	"time"

	"github.com/kraklabs/cardboard/internal/errors"
	"github.com/kraklabs/cardboard/pkg/commands"
	"github.com/kraklabs/cardboard/pkg/engine"
	"github.com/kraklabs/cardboard/pkg/host"
	"github.com/kraklabs/cardboard/pkg/ingestion"
	"github.com/kraklabs/cardboard/pkg/plugin"
	"github.com/kraklabs/cardboard/pkg/settings"
	"github.com/kraklabs/cardboard/pkg/vault"
)

// session is one CLI-hosted plugin instance over a vault.
type session struct {
	cfg    *Config
	vault  *vault.FSVault
	host   *host.Host
	plugin *plugin.Plugin
	logger *slog.Logger
}

// openSession opens the configured vault and wires a plugin to it. The
// engine is not started until OnLayoutReady.
func openSession(cfg *Config, onProgress ingestion.ProgressFunc, logger *slog.Logger) (*session, error) {
	v, err := vault.Open(cfg.VaultPath(), logger)
	if err != nil {
		return nil, errors.NewVaultError(
			"Cannot open vault",
			err.Error(),
			"Check the vault path in "+ConfigFile+" or set CARDBOARD_VAULT",
			err,
		)
	}

	s := &session{
		cfg:    cfg,
		vault:  v,
		host:   host.New(settings.PluginID),
		logger: logger,
	}
	adapter := v.Adapter()
	s.plugin = plugin.New(plugin.Options{
		Vault:       v,
		Adapter:     adapter,
		ConfigDir:   v.ConfigDir(),
		UI:          s.host,
		Engine:      s.startEngine,
		Environment: plugin.VaultEnvironment(adapter, v.ConfigDir(), cfg.FirstDayOfWeek, time.Local, logger),
		ReadWorkers: cfg.ReadWorkers,
		OnProgress:  onProgress,
	}, logger)
	return s, nil
}

// startEngine runs the configured engine process, or the built-in headless
// engine when no command is configured.
func (s *session) startEngine(ctx context.Context, flags engine.Flags) (engine.Transport, error) {
	if s.cfg.Engine.Command != "" {
		return engine.StartProcess(ctx, s.cfg.Engine.Command, s.cfg.Engine.Args, flags, s.logger)
	}

	hostEnd, engineEnd := engine.Pipe()
	init, err := engine.EncodeOutbound(engine.Init{Flags: flags})
	if err != nil {
		return nil, err
	}
	if err := hostEnd.Send(ctx, init); err != nil {
		return nil, fmt.Errorf("send engine flags: %w", err)
	}

	h := engine.NewHeadless(engineEnd, s.logger)
	go func() {
		stats, err := h.Serve(context.WithoutCancel(ctx))
		if err != nil {
			s.logger.Warn("engine.headless.error", "err", err)
		}
		s.logger.Info("engine.headless.exit", "files", stats.Files, "dated", stats.Dated, "batches", stats.Batches)
	}()
	s.logger.Info("engine.headless.start", "session", flags.UniqueID)
	return hostEnd, nil
}

// load runs OnLoad and converts failures for the CLI.
func (s *session) load(ctx context.Context) error {
	if err := s.plugin.OnLoad(ctx); err != nil {
		return errors.NewConfigError(
			"Cannot load board settings",
			err.Error(),
			"Fix or remove "+s.plugin.Store().SettingsPath(),
			err,
		)
	}
	return nil
}

// boardEntry is a board as shown by status and sync.
type boardEntry struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	CommandID string `json:"command_id"`
}

func boardEntries(s *settings.Settings) []boardEntry {
	boards := s.Boards()
	out := make([]boardEntry, 0, len(boards))
	for i, b := range boards {
		out = append(out, boardEntry{
			Index:     i,
			Title:     b.Title(),
			Type:      b.Tag,
			CommandID: settings.PluginID + ":" + commands.CommandID(i),
		})
	}
	return out
}
