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

package filter

import (
	"path/filepath"
	"strings"
)

// MatchGlob reports whether a vault path matches a glob pattern.
//
// Supported syntax:
//   - * : any sequence of non-separator characters
//   - ** : any sequence of characters including separators (any depth)
//   - ? : any single non-separator character
//   - [abc], [a-z], [!abc], [^abc] : character classes
//
// A pattern that does not start with ** may match at any depth, as if it
// carried an implicit **/ prefix.
func MatchGlob(path, pattern string) bool {
	path = filepath.ToSlash(path)
	pattern = filepath.ToSlash(pattern)

	// dir/** matches the directory and everything under it, at any depth.
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		for _, sub := range suffixes(path) {
			if sub == prefix || strings.HasPrefix(sub, prefix+"/") {
				return true
			}
		}
	}

	// *.ext matches any file with that extension.
	if strings.HasPrefix(pattern, "*.") && !strings.Contains(pattern, "/") {
		return strings.HasSuffix(path, pattern[1:])
	}

	if strings.HasPrefix(pattern, "**/") {
		rest := pattern[3:]
		if path == rest || strings.HasSuffix(path, "/"+rest) {
			return true
		}
		for _, sub := range suffixes(path) {
			if matchSegment(sub, rest, 0, 0) {
				return true
			}
		}
		return false
	}

	if !strings.ContainsAny(pattern, "*?[") {
		return path == pattern || strings.HasSuffix(path, "/"+pattern) || strings.HasPrefix(path, pattern+"/")
	}

	for _, sub := range suffixes(path) {
		if matchSegment(sub, pattern, 0, 0) {
			return true
		}
	}
	return false
}

// suffixes returns path and every trailing sub-path that starts at a
// component boundary: "a/b/c" -> ["a/b/c", "b/c", "c"].
func suffixes(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[i:], "/"))
	}
	return out
}

func matchSegment(path, pattern string, pi, pti int) bool {
	for pi < len(path) || pti < len(pattern) {
		if pti >= len(pattern) {
			return false
		}

		switch {
		case pti+1 < len(pattern) && pattern[pti] == '*' && pattern[pti+1] == '*':
			next := pti + 2
			if next < len(pattern) && pattern[next] == '/' {
				next++
			}
			if next >= len(pattern) {
				return true
			}
			for i := pi; i <= len(path); i++ {
				if matchSegment(path, pattern, i, next) {
					return true
				}
			}
			return false

		case pattern[pti] == '*':
			next := pti + 1
			for i := pi; i <= len(path); i++ {
				if i > pi && path[i-1] == '/' {
					break
				}
				if matchSegment(path, pattern, i, next) {
					return true
				}
			}
			return false

		case pattern[pti] == '?':
			if pi >= len(path) || path[pi] == '/' {
				return false
			}
			pi++
			pti++

		case pattern[pti] == '[':
			if pi >= len(path) {
				return false
			}
			closeIdx := pti + 1
			if closeIdx < len(pattern) && (pattern[closeIdx] == '!' || pattern[closeIdx] == '^') {
				closeIdx++
			}
			if closeIdx < len(pattern) && pattern[closeIdx] == ']' {
				closeIdx++
			}
			for closeIdx < len(pattern) && pattern[closeIdx] != ']' {
				closeIdx++
			}
			if closeIdx >= len(pattern) {
				// Unterminated class: treat [ as a literal.
				if path[pi] != '[' {
					return false
				}
				pi++
				pti++
				continue
			}
			if !matchCharClass(path[pi], pattern[pti+1:closeIdx]) {
				return false
			}
			pi++
			pti = closeIdx + 1

		default:
			if pi >= len(path) || path[pi] != pattern[pti] {
				return false
			}
			pi++
			pti++
		}
	}

	return true
}

// matchCharClass checks c against the body of a [...] class.
func matchCharClass(c byte, class string) bool {
	if len(class) == 0 {
		return false
	}

	negated := class[0] == '!' || class[0] == '^'
	idx := 0
	if negated {
		idx = 1
	}

	matched := false
	for idx < len(class) {
		if idx+2 < len(class) && class[idx+1] == '-' {
			if c >= class[idx] && c <= class[idx+2] {
				matched = true
			}
			idx += 3
			continue
		}
		if c == class[idx] {
			matched = true
		}
		idx++
	}

	return matched != negated
}
