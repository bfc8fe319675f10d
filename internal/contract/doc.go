// Copyright 2025 KrakLabs
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

// Package contract holds the size limits shared by the host and the
// engine.
//
// Every note travels whole inside one fileAdded message, and a stream
// engine reads one message per line. A note larger than the soft limit
// could not be delivered in one line, so ingestion skips it:
//
//	if v := contract.ValidateNote(f.Path, f.Size, contract.SoftLimitBytes()); !v.OK {
//	    log.Printf("skip: %s", v.Message)
//	}
//
// The limit defaults to DefaultSoftLimitBytes (64 MiB) and can be lowered
// or raised with CARDBOARD_SOFT_LIMIT_BYTES.
package contract
