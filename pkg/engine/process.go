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
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ExitGrace is how long Close waits for the engine to exit on its own after
// its stdin is closed before killing it.
const ExitGrace = 5 * time.Second

// Process is an engine running as a child process that speaks
// newline-delimited JSON on stdin and stdout.
type Process struct {
	*StreamTransport

	cmd    *exec.Cmd
	logger *slog.Logger

	waitOnce sync.Once
	exitErr  error
}

// StartProcess launches the engine and sends flags as its first message.
// ctx bounds the start-up handshake only: the process lives until Close,
// so a session context that ends after a successful load does not kill it.
func StartProcess(ctx context.Context, name string, args []string, flags Flags, logger *slog.Logger) (*Process, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}

	logger.Info("engine.process.start", "cmd", name, "args", args)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", name, err)
	}

	p := &Process{
		StreamTransport: NewStreamTransport(stdout, stdin),
		cmd:             cmd,
		logger:          logger,
	}

	first, err := EncodeOutbound(Init{Flags: flags})
	if err == nil {
		err = p.Send(ctx, first)
	}
	if err != nil {
		_ = p.kill()
		return nil, fmt.Errorf("send engine flags: %w", err)
	}
	return p, nil
}

// Close closes the engine's stdin and waits for it to exit. An engine that
// is still running after ExitGrace is killed.
func (p *Process) Close() error {
	p.waitOnce.Do(func() {
		_ = p.StreamTransport.Close()

		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()

		var err error
		select {
		case err = <-done:
		case <-time.After(ExitGrace):
			p.logger.Warn("engine.process.kill", "pid", p.cmd.Process.Pid, "grace", ExitGrace)
			_ = p.cmd.Process.Kill()
			err = <-done
		}
		p.logger.Info("engine.process.exit", "pid", p.cmd.Process.Pid, "err", err)
		if err != nil {
			p.exitErr = fmt.Errorf("engine exited: %w", err)
		}
	})
	return p.exitErr
}

// kill stops an engine that never finished its handshake.
func (p *Process) kill() error {
	p.waitOnce.Do(func() {
		_ = p.StreamTransport.Close()
		_ = p.cmd.Process.Kill()
		p.exitErr = p.cmd.Wait()
	})
	return p.exitErr
}
