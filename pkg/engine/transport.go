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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/kraklabs/cardboard/internal/contract"
)

// ErrClosed is returned by a transport after Close.
var ErrClosed = errors.New("engine: transport closed")

// Transport moves encoded messages across the engine boundary.
//
// Recv returns io.EOF once the engine side has finished sending.
type Transport interface {
	Send(ctx context.Context, msg []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// StreamTransport speaks newline-delimited JSON over a reader/writer pair,
// such as an engine process's stdout and stdin. Lines longer than
// contract.SoftLimitBytes end the stream with an error.
type StreamTransport struct {
	w io.WriteCloser

	writeMu sync.Mutex
	lines   chan []byte
	readErr error // set before lines is closed

	closeOnce sync.Once
	done      chan struct{}
}

// NewStreamTransport starts reading lines from r in the background.
func NewStreamTransport(r io.Reader, w io.WriteCloser) *StreamTransport {
	t := &StreamTransport{
		w:     w,
		lines: make(chan []byte, 64),
		done:  make(chan struct{}),
	}
	go t.readLoop(r)
	return t
}

func (t *StreamTransport) readLoop(r io.Reader) {
	defer close(t.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), contract.SoftLimitBytes())
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg := append([]byte(nil), line...)
		select {
		case t.lines <- msg:
		case <-t.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		t.readErr = fmt.Errorf("engine: read: %w", err)
	}
}

// Send writes msg followed by a newline.
func (t *StreamTransport) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.done:
		return ErrClosed
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')
	if _, err := t.w.Write(buf); err != nil {
		return fmt.Errorf("engine: write: %w", err)
	}
	return nil
}

// Recv returns the next line. It returns io.EOF when the stream ends
// cleanly and ErrClosed after Close.
func (t *StreamTransport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, ErrClosed
	case line, ok := <-t.lines:
		if !ok {
			if t.readErr != nil {
				return nil, t.readErr
			}
			return nil, io.EOF
		}
		return line, nil
	}
}

// Close closes the write side and stops delivering lines.
func (t *StreamTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		err = t.w.Close()
		t.writeMu.Unlock()
	})
	return err
}
