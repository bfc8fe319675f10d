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

// Package filter decides which vault files are eligible for ingestion.
//
// A Filter is built once from an ordered list of rules and never
// mutated afterwards; when the global settings change a new filter is
// built. Evaluation is pure: the same rules and path always give the same
// answer.
//
// # Rule evaluation
//
// Rules are checked in order and the first rule whose pattern matches the
// path decides, by its polarity. A path that no rule matches is allowed
// unless the rule set contains at least one Allow rule, in which case the
// set acts as an allow-list. An empty rule set allows everything.
//
// Tag rules describe note content and are ignored when matching paths.
package filter

import (
	"path"
	"strings"

	"github.com/kraklabs/cardboard/pkg/settings"
)

// Polarity says what a matching rule does to a path.
type Polarity string

const (
	Allow Polarity = "Allow"
	Deny  Polarity = "Deny"
)

// Kind selects the matching semantics of a rule.
type Kind string

const (
	// PathFilter matches a folder and everything below it.
	PathFilter Kind = "pathFilter"
	// FileFilter matches exactly one file.
	FileFilter Kind = "fileFilter"
	// GlobFilter matches with glob syntax (see MatchGlob).
	GlobFilter Kind = "globFilter"
	// TagFilter matches note tags; it never matches a path.
	TagFilter Kind = "tagFilter"
)

// Rule is a single inclusion or exclusion pattern.
type Rule struct {
	Kind     Kind
	Pattern  string
	Polarity Polarity
}

// Matches reports whether the rule's pattern applies to p.
func (r Rule) Matches(p string) bool {
	p = normalize(p)
	switch r.Kind {
	case PathFilter:
		dir := strings.Trim(normalize(r.Pattern), "/")
		if dir == "" {
			return true
		}
		return p == dir || strings.HasPrefix(p, dir+"/")
	case FileFilter:
		return p == strings.Trim(normalize(r.Pattern), "/")
	case GlobFilter:
		return MatchGlob(p, r.Pattern)
	default:
		return false
	}
}

// Filter is an immutable, ordered rule set.
type Filter struct {
	rules    []Rule
	hasAllow bool
}

// New builds a filter from rules. Tag rules are dropped since they can
// never match a path. The rules slice is copied.
func New(rules ...Rule) *Filter {
	f := &Filter{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		if r.Kind == TagFilter {
			continue
		}
		if r.Polarity != Allow {
			r.Polarity = Deny
		}
		if r.Polarity == Allow {
			f.hasAllow = true
		}
		f.rules = append(f.rules, r)
	}
	return f
}

// FromSettings builds a filter from globalSettings.filters, applying
// globalSettings.filterPolarity to every rule. Nil settings give an empty
// filter.
func FromSettings(s *settings.Settings) *Filter {
	gs := s.Global()
	polarity := Deny
	if strings.EqualFold(gs.FilterPolarity, string(Allow)) {
		polarity = Allow
	}

	rules := make([]Rule, 0, len(gs.Filters))
	for _, f := range gs.Filters {
		rules = append(rules, Rule{
			Kind:     Kind(f.Tag),
			Pattern:  f.Data,
			Polarity: polarity,
		})
	}
	return New(rules...)
}

// IsAllowed reports whether the file at p should be ingested.
func (f *Filter) IsAllowed(p string) bool {
	if f == nil || len(f.rules) == 0 {
		return true
	}
	for _, r := range f.rules {
		if r.Matches(p) {
			return r.Polarity == Allow
		}
	}
	return !f.hasAllow
}

// Rules returns a copy of the effective rules.
func (f *Filter) Rules() []Rule {
	if f == nil {
		return nil
	}
	out := make([]Rule, len(f.rules))
	copy(out, f.rules)
	return out
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return ""
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return strings.TrimPrefix(cleaned, "./")
}
