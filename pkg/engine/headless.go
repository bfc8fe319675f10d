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

package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// HeadlessStats counts what a headless engine received.
type HeadlessStats struct {
	Initialized bool
	Files       int
	Dated       int
	Batches     int
}

// Headless is an in-process engine that acknowledges each ingestion batch
// with allTasksLoaded without building a board model. It stands in for the
// real engine in headless sessions and tests.
type Headless struct {
	transport Transport
	logger    *slog.Logger

	// OnFile, if set, is called for every fileAdded message.
	OnFile func(FileAdded)
}

// NewHeadless serves the engine end of t.
func NewHeadless(t Transport, logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	return &Headless{transport: t, logger: logger}
}

// Serve handles messages until the host closes its side or ctx is done.
func (h *Headless) Serve(ctx context.Context) (HeadlessStats, error) {
	var stats HeadlessStats
	for {
		b, err := h.transport.Recv(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrClosed) {
				return stats, nil
			}
			return stats, err
		}

		m, err := DecodeOutbound(b)
		if err != nil {
			h.logger.Warn("engine.headless.decode_error", "err", err)
			continue
		}

		switch msg := m.(type) {
		case Init:
			stats.Initialized = true
		case FileAdded:
			stats.Files++
			if msg.FileDate != nil {
				stats.Dated++
			}
			if h.OnFile != nil {
				h.OnFile(msg)
			}
		case AllMarkdownLoaded:
			stats.Batches++
			ack, err := EncodeEvent(AllTasksLoaded{})
			if err != nil {
				return stats, err
			}
			if err := h.transport.Send(ctx, ack); err != nil {
				return stats, err
			}
			h.logger.Debug("engine.headless.batch", "files", stats.Files)
		}
	}
}
