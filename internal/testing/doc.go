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

// Package testing provides on-disk vault fixtures for CardBoard tests.
//
// A fixture vault is a temporary directory laid out like an Obsidian vault:
// markdown notes anywhere, app configuration under .obsidian/ and the
// plugin settings under .obsidian/plugins/card-board/data.json.
//
// # Quick Start
//
//	func TestMyFeature(t *testing.T) {
//	    root := cbtest.SeedSampleVault(t)
//
//	    // Five notes, three boards; Archive/ and Scratch.md are filtered.
//	    v, err := vault.Open(root, nil)
//	    require.NoError(t, err)
//	}
//
// Import it under an alias, since it shares its name with the standard
// library package:
//
//	cbtest "github.com/kraklabs/cardboard/internal/testing"
package testing
