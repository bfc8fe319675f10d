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

package contract

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultSoftLimitBytes is the largest message a stream transport reads.
const DefaultSoftLimitBytes = 64 << 20

// envelopeReserve leaves room in a message for the envelope and the path.
const envelopeReserve = 64 << 10

// SoftLimitBytes returns the message size limit, from
// CARDBOARD_SOFT_LIMIT_BYTES when set to a positive number.
func SoftLimitBytes() int {
	if v := os.Getenv("CARDBOARD_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult is the outcome of a limit check.
type ValidationResult struct {
	OK      bool
	Message string
}

// MaxNoteBytes is the largest note that fits in a message of limit bytes.
func MaxNoteBytes(limit int) int64 {
	n := int64(limit) - envelopeReserve
	if n < int64(limit)/2 {
		n = int64(limit) / 2
	}
	return n
}

// ValidateNote checks that a note of size bytes fits in one message of
// limit bytes.
func ValidateNote(path string, size int64, limit int) *ValidationResult {
	if maxBytes := MaxNoteBytes(limit); size > maxBytes {
		return &ValidationResult{
			OK:      false,
			Message: fmt.Sprintf("%s is %d bytes, over the %d byte note limit", path, size, maxBytes),
		}
	}
	return &ValidationResult{OK: true}
}

// ValidateMessage checks that an encoded message of size bytes, plus its
// line terminator, fits in a stream transport line of limit bytes.
func ValidateMessage(path string, size, limit int) *ValidationResult {
	if size+1 > limit {
		return &ValidationResult{
			OK:      false,
			Message: fmt.Sprintf("%s encodes to %d bytes, over the %d byte message limit", path, size, limit),
		}
	}
	return &ValidationResult{OK: true}
}
