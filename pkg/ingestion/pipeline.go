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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/cardboard/internal/contract"
	"github.com/kraklabs/cardboard/pkg/engine"
	"github.com/kraklabs/cardboard/pkg/filter"
)

// DefaultReadWorkers is the number of concurrent note reads.
const DefaultReadWorkers = 4

var (
	// ErrAlreadyRan is returned by a second call to Pipeline.Run.
	ErrAlreadyRan = errors.New("ingestion: pipeline already ran for this session")
	// ErrNoteTooLarge marks a note skipped for not fitting in one message.
	ErrNoteTooLarge = errors.New("ingestion: note too large")
)

// File is a note known to the vault.
type File struct {
	// Path is vault-relative and uses forward slashes.
	Path    string
	ModTime time.Time
	Size    int64
}

// Vault enumerates and reads notes.
type Vault interface {
	MarkdownFiles(ctx context.Context) ([]File, error)
	// CachedRead may return content that is stale relative to disk.
	CachedRead(ctx context.Context, f File) (string, error)
}

// Sender delivers messages to the engine. *engine.Channel implements it.
type Sender interface {
	Send(ctx context.Context, m engine.Outbound) error
}

// ProgressFunc is called after each eligible file is handled.
type ProgressFunc func(done, total int, path string)

// Config configures a Pipeline.
type Config struct {
	// Filter decides eligibility; nil admits every file.
	Filter *filter.Filter
	// Dates derives fileDate; nil sends every file without a date.
	Dates       *DateResolver
	ReadWorkers int
	OnProgress  ProgressFunc
	// MessageLimit is the largest message the engine accepts. Notes whose
	// encoded fileAdded message would not fit, escaping included, are
	// skipped like unreadable ones. Zero means contract.SoftLimitBytes().
	MessageLimit int
}

// Result summarizes an ingestion run.
type Result struct {
	// FilesSeen is the number of notes the vault enumerated.
	FilesSeen int
	// FilesFiltered were rejected by the filter.
	FilesFiltered int
	// FilesSent is the number of fileAdded messages delivered.
	FilesSent  int
	FilesDated int
	// ReadErrors counts files skipped because their content could not be read.
	ReadErrors int
	Duration   time.Duration
}

// Pipeline streams eligible notes to the engine, once per session.
type Pipeline struct {
	vault  Vault
	sender Sender
	cfg    Config
	logger *slog.Logger
	ran    atomic.Bool
}

// NewPipeline creates a pipeline. If logger is nil, slog.Default() is used.
func NewPipeline(v Vault, s Sender, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadWorkers <= 0 {
		cfg.ReadWorkers = DefaultReadWorkers
	}
	if cfg.MessageLimit <= 0 {
		cfg.MessageLimit = contract.SoftLimitBytes()
	}
	return &Pipeline{vault: v, sender: s, cfg: cfg, logger: logger}
}

// Run enumerates the vault, filters, and sends one fileAdded per eligible
// file in enumeration order followed by a single allMarkdownLoaded. A file
// whose content cannot be read is skipped and counted; the batch still
// completes. A failed send aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if !p.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRan
	}
	ingMetrics.init()

	start := time.Now()
	p.logger.Info("ingestion.start")

	files, err := p.vault.MarkdownFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate notes: %w", err)
	}

	res := &Result{FilesSeen: len(files)}
	eligible := make([]File, 0, len(files))
	for _, f := range files {
		if !p.cfg.Filter.IsAllowed(f.Path) {
			res.FilesFiltered++
			continue
		}
		eligible = append(eligible, f)
	}
	ingMetrics.filesSeen.Add(float64(res.FilesSeen))
	ingMetrics.filesFiltered.Add(float64(res.FilesFiltered))
	p.logger.Info("ingestion.filter.complete",
		"seen", res.FilesSeen,
		"eligible", len(eligible),
		"filtered", res.FilesFiltered,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	reads := p.prefetch(ctx, eligible)

	for i, f := range eligible {
		var r readResult
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case r = <-reads.slots[i]:
		}
		reads.release()

		if r.err != nil {
			res.ReadErrors++
			ingMetrics.readErrors.Inc()
			p.logger.Warn("ingestion.read.error", "path", f.Path, "err", r.err)
			p.progress(i+1, len(eligible), f.Path)
			continue
		}

		date := p.cfg.Dates.Resolve(f.Path)
		if date != nil {
			res.FilesDated++
		}
		msg := engine.FileAdded{FilePath: f.Path, FileDate: date, FileContents: r.content}
		if err := p.sender.Send(ctx, msg); err != nil {
			ingMetrics.sendErrors.Inc()
			return res, fmt.Errorf("send %s: %w", f.Path, err)
		}
		res.FilesSent++
		ingMetrics.filesSent.Inc()
		p.progress(i+1, len(eligible), f.Path)
	}

	if err := p.sender.Send(ctx, engine.AllMarkdownLoaded{}); err != nil {
		ingMetrics.sendErrors.Inc()
		return res, fmt.Errorf("send end of batch: %w", err)
	}

	res.Duration = time.Since(start)
	ingMetrics.totalDuration.Observe(res.Duration.Seconds())
	p.logger.Info("ingestion.complete",
		"sent", res.FilesSent,
		"dated", res.FilesDated,
		"read_errors", res.ReadErrors,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) progress(done, total int, path string) {
	if p.cfg.OnProgress != nil {
		p.cfg.OnProgress(done, total, path)
	}
}

type readResult struct {
	content string
	err     error
}

// readAhead holds one result slot per file. The window bounds how many
// read contents are held in memory ahead of the sender.
type readAhead struct {
	slots  []chan readResult
	window chan struct{}
}

func (r *readAhead) release() { <-r.window }

// prefetch reads files concurrently while results are consumed in order.
func (p *Pipeline) prefetch(ctx context.Context, files []File) *readAhead {
	ra := &readAhead{
		slots:  make([]chan readResult, len(files)),
		window: make(chan struct{}, p.cfg.ReadWorkers*4),
	}
	for i := range ra.slots {
		ra.slots[i] = make(chan readResult, 1)
	}

	go func() {
		g := new(errgroup.Group)
		g.SetLimit(p.cfg.ReadWorkers)
		for i, f := range files {
			select {
			case ra.window <- struct{}{}:
			case <-ctx.Done():
				_ = g.Wait()
				return
			}
			g.Go(func() error {
				if v := contract.ValidateNote(f.Path, f.Size, p.cfg.MessageLimit); !v.OK {
					ra.slots[i] <- readResult{err: fmt.Errorf("%w: %s", ErrNoteTooLarge, v.Message)}
					return nil
				}
				readStart := time.Now()
				content, err := p.vault.CachedRead(ctx, f)
				ingMetrics.readDuration.Observe(time.Since(readStart).Seconds())
				if err == nil {
					err = p.checkEncoded(f.Path, content)
				}
				ra.slots[i] <- readResult{content: content, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return ra
}

// placeholderDate has the width of every resolved fileDate.
var placeholderDate = "0000-00-00"

// checkEncoded rejects content whose fileAdded message would exceed the
// message limit once JSON escaping is applied. The on-disk size check in
// prefetch only avoids reading notes that can never fit.
func (p *Pipeline) checkEncoded(path, content string) error {
	msg, err := engine.EncodeOutbound(engine.FileAdded{
		FilePath:     path,
		FileDate:     &placeholderDate,
		FileContents: content,
	})
	if err != nil {
		return err
	}
	if v := contract.ValidateMessage(path, len(msg), p.cfg.MessageLimit); !v.OK {
		return fmt.Errorf("%w: %s", ErrNoteTooLarge, v.Message)
	}
	return nil
}
