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

// Package plugin drives a board session: it loads settings, starts the
// engine, streams the vault into it and, once the engine reports that all
// tasks are loaded, exposes the boards through the view, ribbon and
// command palette.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kraklabs/cardboard/pkg/commands"
	"github.com/kraklabs/cardboard/pkg/engine"
	"github.com/kraklabs/cardboard/pkg/filter"
	"github.com/kraklabs/cardboard/pkg/ingestion"
	"github.com/kraklabs/cardboard/pkg/settings"
	"github.com/kraklabs/cardboard/pkg/view"
)

// IconName is the registered icon and ribbon entry of the plugin.
const IconName = "card-board"

var (
	// ErrNotLoaded is returned when OnLayoutReady runs before OnLoad.
	ErrNotLoaded = errors.New("plugin: OnLoad has not run")
	// ErrEngineExited is returned by Wait when the engine stops before
	// reporting that all tasks are loaded.
	ErrEngineExited = errors.New("plugin: engine exited before loading tasks")
)

// UI is everything the plugin needs from the host application.
type UI interface {
	commands.Host
	view.Workspace
	RegisterView(viewType string, factory func() any) error
	AddIcon(name, svg string)
	AddRibbonIcon(icon, title string, onClick func(ctx context.Context) error)
}

// EngineStarter starts the engine with its start-up flags.
type EngineStarter func(ctx context.Context, flags engine.Flags) (engine.Transport, error)

// Environment holds the host facts read when the layout is ready.
type Environment struct {
	RightToLeft    bool
	FirstDayOfWeek int
	DailyNotes     ingestion.DailyNoteSettings
	Dataview       *engine.DataviewSettings
	Location       *time.Location
}

// EnvironmentLoader reads the Environment.
type EnvironmentLoader func(ctx context.Context) (Environment, error)

// Options configures a Plugin.
type Options struct {
	Vault     ingestion.Vault
	Adapter   settings.DataAdapter
	ConfigDir string
	UI        UI
	Engine    EngineStarter
	// Environment is optional; the zero Environment is used when nil.
	Environment EnvironmentLoader
	// ReadWorkers bounds concurrent note reads during ingestion.
	ReadWorkers int
	OnProgress  ingestion.ProgressFunc
	// Now is used for the engine flags; time.Now when nil.
	Now func() time.Time
}

// Plugin is one board session.
type Plugin struct {
	opts   Options
	logger *slog.Logger

	store    *settings.Store
	registry *commands.Registry
	views    *view.Coordinator

	mu      sync.Mutex
	loaded  bool
	started bool
	filter  *filter.Filter
	channel *engine.Channel

	runCancel context.CancelFunc
	runDone   chan struct{}
	runErr    error

	ingesting sync.WaitGroup

	activateOnce sync.Once
	ready        chan struct{}
	activateErr  error
}

// New creates a plugin. If logger is nil, slog.Default() is used.
func New(opts Options, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Plugin{
		opts:    opts,
		logger:  logger,
		store:   settings.NewStore(opts.Adapter, opts.ConfigDir, logger),
		views:   view.NewCoordinator(opts.UI, logger),
		runDone: make(chan struct{}),
		ready:   make(chan struct{}),
	}
	p.registry = commands.NewRegistry(opts.UI, p.views, logger)
	p.store.OnChange(p.onSettingsChange)
	return p
}

// Store returns the settings store.
func (p *Plugin) Store() *settings.Store { return p.store }

// Commands returns the command registry.
func (p *Plugin) Commands() *commands.Registry { return p.registry }

// Views returns the view coordinator.
func (p *Plugin) Views() *view.Coordinator { return p.views }

// Filter returns the filter of the current settings.
func (p *Plugin) Filter() *filter.Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// OnLoad loads the settings and builds the session filter.
func (p *Plugin) OnLoad(ctx context.Context) error {
	s, err := p.store.Load(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.filter = filter.FromSettings(s)
	p.loaded = true
	p.mu.Unlock()

	p.logger.Info("plugin.load", "version", settings.VersionOf(s), "boards", len(s.Boards()))
	return nil
}

// OnLayoutReady starts the engine and runs the session's single ingestion
// pass. It returns once the end-of-batch message has been sent; the
// engine's reply is awaited with Wait. Cancelling ctx does not interrupt
// ingestion once it has started.
func (p *Plugin) OnLayoutReady(ctx context.Context) (*ingestion.Result, error) {
	p.mu.Lock()
	switch {
	case !p.loaded:
		p.mu.Unlock()
		return nil, ErrNotLoaded
	case p.started:
		p.mu.Unlock()
		return nil, ingestion.ErrAlreadyRan
	}
	p.started = true
	p.ingesting.Add(1)
	p.mu.Unlock()
	defer p.ingesting.Done()

	ch, env, err := p.startEngine(ctx)
	if err != nil {
		p.mu.Lock()
		p.started = false
		p.mu.Unlock()
		return nil, err
	}

	dates, err := ingestion.NewDateResolver(env.DailyNotes)
	if err != nil {
		p.logger.Warn("plugin.daily_notes.format_invalid", "format", env.DailyNotes.Format, "err", err)
		dates, _ = ingestion.NewDateResolver(ingestion.DailyNoteSettings{})
	}

	pipeline := ingestion.NewPipeline(p.opts.Vault, ch, ingestion.Config{
		Filter:      p.Filter(),
		Dates:       dates,
		ReadWorkers: p.opts.ReadWorkers,
		OnProgress:  p.opts.OnProgress,
	}, p.logger)
	return pipeline.Run(context.WithoutCancel(ctx))
}

// startEngine launches the engine, subscribes to its events and starts
// the receive loop.
func (p *Plugin) startEngine(ctx context.Context) (*engine.Channel, Environment, error) {
	env, err := p.environment(ctx)
	if err != nil {
		return nil, env, err
	}
	flags := engine.NewFlags(p.store.Current(), engine.FlagOptions{
		Now:            p.opts.Now(),
		Location:       env.Location,
		FirstDayOfWeek: env.FirstDayOfWeek,
		RightToLeft:    env.RightToLeft,
		Dataview:       env.Dataview,
	})

	transport, err := p.opts.Engine(ctx, flags)
	if err != nil {
		return nil, env, fmt.Errorf("start engine: %w", err)
	}
	ch := engine.NewChannel(transport, p.logger)
	if err := ch.Subscribe(p.handle); err != nil {
		_ = ch.Close()
		return nil, env, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.mu.Lock()
	p.channel = ch
	p.runCancel = cancel
	p.mu.Unlock()

	go func() {
		defer close(p.runDone)
		p.runErr = ch.Run(runCtx)
		if p.runErr != nil {
			p.logger.Error("plugin.engine.channel.error", "err", p.runErr)
		}
	}()
	return ch, env, nil
}

func (p *Plugin) environment(ctx context.Context) (Environment, error) {
	if p.opts.Environment == nil {
		return Environment{}, nil
	}
	env, err := p.opts.Environment(ctx)
	if err != nil {
		return Environment{}, fmt.Errorf("read vault environment: %w", err)
	}
	return env, nil
}

// handle dispatches engine events.
func (p *Plugin) handle(ctx context.Context, ev engine.Event) {
	switch e := ev.(type) {
	case engine.AllTasksLoaded:
		p.activateOnce.Do(func() {
			p.activateErr = p.activate(ctx)
			if p.activateErr != nil {
				p.logger.Error("plugin.activate.error", "err", p.activateErr)
			}
			close(p.ready)
		})
	case engine.SettingsUpdated:
		if err := p.SaveSettings(ctx, e.Settings); err != nil {
			p.logger.Error("plugin.settings.save.error", "err", err)
		}
	}
}

// activate exposes the boards once the engine has loaded every task.
func (p *Plugin) activate(ctx context.Context) error {
	if err := p.opts.UI.RegisterView(view.Type, func() any { return view.NewBoard() }); err != nil {
		return fmt.Errorf("register view: %w", err)
	}
	p.opts.UI.AddIcon(IconName, iconSVG)
	p.opts.UI.AddRibbonIcon(IconName, "Open CardBoard", func(ctx context.Context) error {
		return p.views.Activate(ctx, 0)
	})
	if err := p.registry.Rebuild(ctx, p.store.Current()); err != nil {
		return err
	}
	p.logger.Info("plugin.activate.complete", "commands", len(p.registry.IDs()))
	return nil
}

// SaveSettings replaces the settings: backup, command rebuild, in-memory
// replace, persist.
func (p *Plugin) SaveSettings(ctx context.Context, s *settings.Settings) error {
	return p.store.Save(ctx, s)
}

// onSettingsChange runs inside Save, before the new settings become current.
func (p *Plugin) onSettingsChange(ctx context.Context, next *settings.Settings) error {
	if err := p.registry.Rebuild(ctx, next); err != nil {
		return err
	}
	p.mu.Lock()
	p.filter = filter.FromSettings(next)
	p.mu.Unlock()
	return nil
}

// Wait blocks until the engine has reported that all tasks are loaded and
// the boards are exposed.
func (p *Plugin) Wait(ctx context.Context) error {
	select {
	case <-p.ready:
		return p.activateErr
	case <-ctx.Done():
		return ctx.Err()
	case <-p.runDone:
		select {
		case <-p.ready:
			return p.activateErr
		default:
		}
		if p.runErr != nil {
			return fmt.Errorf("%w: %v", ErrEngineExited, p.runErr)
		}
		return ErrEngineExited
	}
}

// Activated reports whether the boards have been exposed.
func (p *Plugin) Activated() bool {
	select {
	case <-p.ready:
		return true
	default:
		return false
	}
}

// OnUnload detaches board views and shuts the engine down. An ingestion
// pass still in flight is allowed to finish first.
func (p *Plugin) OnUnload(ctx context.Context) error {
	p.views.Deactivate()

	done := make(chan struct{})
	go func() {
		p.ingesting.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	ch := p.channel
	cancel := p.runCancel
	p.mu.Unlock()
	if ch == nil {
		return nil
	}

	err := ch.Close()
	<-p.runDone
	cancel()
	p.logger.Info("plugin.unload")
	return err
}
