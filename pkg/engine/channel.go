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
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrAlreadySubscribed is returned when a second handler is registered on
// a Channel.
var ErrAlreadySubscribed = errors.New("engine: channel already has a subscriber")

// Handler receives decoded engine events in arrival order.
type Handler func(ctx context.Context, ev Event)

// Channel is the typed, bidirectional message channel between the host
// and the engine. It has exactly one subscriber.
type Channel struct {
	transport Transport
	logger    *slog.Logger

	mu      sync.Mutex
	handler Handler
}

// NewChannel wraps t. If logger is nil, slog.Default() is used.
func NewChannel(t Transport, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{transport: t, logger: logger}
}

// Subscribe registers the single event handler.
func (c *Channel) Subscribe(h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil {
		return ErrAlreadySubscribed
	}
	c.handler = h
	return nil
}

// Send encodes m and hands it to the transport.
func (c *Channel) Send(ctx context.Context, m Outbound) error {
	b, err := EncodeOutbound(m)
	if err != nil {
		return err
	}
	if err := c.transport.Send(ctx, b); err != nil {
		return fmt.Errorf("send %s: %w", m.Tag(), err)
	}
	return nil
}

// Run delivers inbound events to the subscriber until the engine closes
// its side (nil), the transport fails, or ctx is cancelled (ctx.Err()).
// Malformed messages and unknown tags are logged and skipped.
func (c *Channel) Run(ctx context.Context) error {
	for {
		b, err := c.transport.Recv(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrClosed) {
				c.logger.Debug("engine.channel.closed")
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		ev, err := DecodeEvent(b)
		if err != nil {
			c.logger.Warn("engine.channel.decode_error", "err", err, "bytes", len(b))
			continue
		}
		if u, ok := ev.(Unknown); ok {
			c.logger.Debug("engine.channel.unknown_tag", "tag", u.Tag)
			continue
		}

		c.mu.Lock()
		h := c.handler
		c.mu.Unlock()
		if h == nil {
			c.logger.Warn("engine.channel.no_subscriber", "tag", ev.EventTag())
			continue
		}
		h(ctx, ev)
	}
}

// Close closes the underlying transport.
func (c *Channel) Close() error {
	return c.transport.Close()
}
