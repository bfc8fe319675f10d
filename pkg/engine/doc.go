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

// Package engine defines the message protocol between the host and the
// board engine, which owns task parsing and rendering.
//
// Every message is a JSON object {"tag": string, "data": object}. The host
// sends init, fileAdded and allMarkdownLoaded; the engine sends
// allTasksLoaded and updateSettings. Tags the host does not recognise are
// ignored.
//
// A Channel carries these messages over a Transport. StreamTransport frames
// them as newline-delimited JSON, which is what StartProcess uses to drive
// an engine child process.
package engine
