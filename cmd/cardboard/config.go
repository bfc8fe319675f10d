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
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/cardboard/internal/errors"
	"github.com/kraklabs/cardboard/pkg/ingestion"
)

// ConfigFile is the CLI configuration file looked up in the working
// directory.
const ConfigFile = ".cardboard.yaml"

// DefaultSettleTimeout bounds how long sync waits for the engine to report
// that all tasks are loaded.
const DefaultSettleTimeout = 30 * time.Second

// Config models .cardboard.yaml.
type Config struct {
	// Vault is the vault directory, relative to the config file.
	Vault string `yaml:"vault"`
	// Engine is the board engine to run. An empty command runs the
	// built-in headless engine.
	Engine EngineConfig `yaml:"engine"`
	// ReadWorkers bounds concurrent note reads during ingestion.
	ReadWorkers int `yaml:"read_workers"`
	// FirstDayOfWeek is 0 for Sunday through 6 for Saturday.
	FirstDayOfWeek int           `yaml:"first_day_of_week"`
	SettleTimeout  time.Duration `yaml:"settle_timeout"`
	MetricsAddr    string        `yaml:"metrics_addr,omitempty"`

	// dir is the directory holding the config file.
	dir string
}

// EngineConfig is the engine command line.
type EngineConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Vault:          ".",
		ReadWorkers:    ingestion.DefaultReadWorkers,
		FirstDayOfWeek: 1,
		SettleTimeout:  DefaultSettleTimeout,
		dir:            ".",
	}
}

// ConfigPath returns the config file path for dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, ConfigFile)
}

// LoadConfig reads path, or ./.cardboard.yaml when path is empty. A
// missing default file yields DefaultConfig; a missing explicit path is an
// error. Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = ConfigFile
	}

	cfg := DefaultConfig()
	cfg.dir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.NewConfigError(
				"Invalid configuration file",
				fmt.Sprintf("%s: %v", path, err),
				"Fix the YAML or recreate it with 'cardboard init --force'",
				err,
			)
		}
	case stderrors.Is(err, fs.ErrNotExist) && !explicit:
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.NewNotFoundError(
			"Configuration file not found",
			path+" does not exist",
			"Create it with 'cardboard init' or drop --config",
		)
	default:
		return nil, errors.Wrap(err, errors.ExitConfig, "Cannot read configuration file")
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CARDBOARD_VAULT")); v != "" {
		c.Vault = v
	}
	if v := strings.Fields(os.Getenv("CARDBOARD_ENGINE")); len(v) > 0 {
		c.Engine = EngineConfig{Command: v[0], Args: v[1:]}
	}
}

func (c *Config) validate() error {
	if c.FirstDayOfWeek < 0 || c.FirstDayOfWeek > 6 {
		return errors.NewConfigError(
			"Invalid first_day_of_week",
			fmt.Sprintf("got %d", c.FirstDayOfWeek),
			"Use 0 (Sunday) through 6 (Saturday)",
			nil,
		)
	}
	if c.ReadWorkers < 0 {
		return errors.NewConfigError(
			"Invalid read_workers",
			fmt.Sprintf("got %d", c.ReadWorkers),
			"Use a positive number, or 0 for the default",
			nil,
		)
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = DefaultSettleTimeout
	}
	return nil
}

// VaultPath returns the vault directory, resolved against the config
// file's directory.
func (c *Config) VaultPath() string {
	if filepath.IsAbs(c.Vault) {
		return c.Vault
	}
	return filepath.Join(c.dir, c.Vault)
}

// SaveConfig writes cfg to path.
func SaveConfig(path string, cfg *Config) error {
	var buf bytes.Buffer
	buf.WriteString("# cardboard configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
