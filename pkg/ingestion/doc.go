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

// Package ingestion streams the vault's notes to the board engine.
//
// A Pipeline runs once per session, after the host reports that its layout
// is ready:
//
//  1. Enumerate every markdown note the Vault knows about.
//  2. Drop notes rejected by the session's filter. Dropped notes are not
//     errors.
//  3. Derive each note's date from the daily-note format (nil when the
//     name does not match).
//  4. Read the note, possibly from the vault's cache.
//  5. Send one fileAdded message per note, in enumeration order.
//  6. Send a single allMarkdownLoaded message.
//
// Reads run concurrently ahead of the sender but messages leave in order.
// A note that cannot be read is skipped and counted in Result.ReadErrors;
// the batch still ends with allMarkdownLoaded.
//
//	p := ingestion.NewPipeline(vault, channel, ingestion.Config{
//	    Filter: filter.FromSettings(s),
//	    Dates:  dates,
//	}, logger)
//	res, err := p.Run(ctx)
package ingestion
