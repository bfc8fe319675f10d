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

package plugin

import (
	"context"
	"log/slog"
	"time"

	"github.com/kraklabs/cardboard/pkg/ingestion"
	"github.com/kraklabs/cardboard/pkg/vault"
)

// VaultEnvironment reads the environment from the vault's configuration
// directory: text direction, daily-note format and the dataview plugin's
// task completion settings.
//
// A file that cannot be read or decoded is logged and replaced by its
// defaults, so a broken companion config never stops a session. If logger
// is nil, slog.Default() is used.
func VaultEnvironment(a *vault.DirAdapter, configDir string, firstDayOfWeek int, loc *time.Location, logger *slog.Logger) EnvironmentLoader {
	if logger == nil {
		logger = slog.Default()
	}
	invalid := func(file string, err error) {
		logger.Warn("plugin.environment.invalid", "file", file, "err", err)
	}

	return func(ctx context.Context) (Environment, error) {
		app, err := vault.ReadAppConfig(ctx, a, configDir)
		if err != nil {
			invalid("app.json", err)
			app = vault.AppConfig{}
		}
		daily, err := vault.ReadDailyNoteSettings(ctx, a, configDir)
		if err != nil {
			invalid("daily-notes.json", err)
			daily = ingestion.DailyNoteSettings{}
		}
		dataview, err := vault.ReadDataviewSettings(ctx, a, configDir)
		if err != nil {
			invalid("plugins/dataview/data.json", err)
			dataview = nil
		}
		return Environment{
			RightToLeft:    app.RightToLeft,
			FirstDayOfWeek: firstDayOfWeek,
			DailyNotes:     daily,
			Dataview:       dataview,
			Location:       loc,
		}, nil
	}
}
