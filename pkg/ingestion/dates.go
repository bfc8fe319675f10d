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

package ingestion

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultDailyNoteFormat is used when daily notes are not configured.
const DefaultDailyNoteFormat = "YYYY-MM-DD"

// DailyNoteSettings mirrors the vault's daily-notes configuration.
type DailyNoteSettings struct {
	Format string `json:"format"`
	Folder string `json:"folder"`
}

// DateResolver derives a note's calendar date from its file name using the
// daily-note format.
type DateResolver struct {
	format string
	last   *dateLayout // last path segment of the format
	full   *dateLayout // whole format, only when it spans directories
}

// NewDateResolver compiles the configured format. An empty format means
// DefaultDailyNoteFormat.
func NewDateResolver(s DailyNoteSettings) (*DateResolver, error) {
	format := strings.TrimSpace(s.Format)
	if format == "" {
		format = DefaultDailyNoteFormat
	}

	segments := strings.Split(format, "/")
	last, err := compileLayout(segments[len(segments)-1])
	if len(segments) == 1 {
		if err != nil {
			return nil, err
		}
		return &DateResolver{format: format, last: last}, nil
	}

	// A nested format may keep part of the date in its folders, so the
	// last segment alone is only used when it is a complete date.
	full, fullErr := compileLayout(format)
	if fullErr != nil {
		return nil, fullErr
	}
	r := &DateResolver{format: format, full: full}
	if err == nil {
		r.last = last
	}
	return r, nil
}

// Format returns the daily-note format in effect.
func (r *DateResolver) Format() string {
	if r == nil {
		return ""
	}
	return r.format
}

// Resolve returns the note's date as YYYY-MM-DD, or nil when the file name
// does not strictly match the format. A nil resolver resolves nothing.
func (r *DateResolver) Resolve(p string) *string {
	if r == nil {
		return nil
	}
	p = strings.TrimSuffix(strings.ReplaceAll(p, `\`, "/"), path.Ext(p))

	if r.last != nil {
		if t, ok := r.last.parse(path.Base(p)); ok {
			return formatDate(t)
		}
	}
	if r.full == nil {
		return nil
	}
	want := strings.Count(r.format, "/") + 1
	parts := strings.Split(p, "/")
	if len(parts) < want {
		return nil
	}
	if t, ok := r.full.parse(strings.Join(parts[len(parts)-want:], "/")); ok {
		return formatDate(t)
	}
	return nil
}

func formatDate(t time.Time) *string {
	s := t.Format(time.DateOnly)
	return &s
}

// dateLayout is a moment.js format compiled to an anchored expression.
type dateLayout struct {
	re     *regexp.Regexp
	fields []string
}

var (
	monthsLong  = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
	monthsShort = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	daysLong    = "Sunday|Monday|Tuesday|Wednesday|Thursday|Friday|Saturday"
	daysShort   = "Sun|Mon|Tue|Wed|Thu|Fri|Sat"
)

// momentTokens lists supported tokens, longest first so that a prefix
// never shadows a longer token.
var momentTokens = []struct {
	token string
	expr  string
}{
	{"YYYY", `(\d{4})`},
	{"MMMM", `(` + strings.Join(monthsLong, "|") + `)`},
	{"dddd", `(?:` + daysLong + `)`},
	{"MMM", `(` + strings.Join(monthsShort, "|") + `)`},
	{"ddd", `(?:` + daysShort + `)`},
	{"YY", `(\d{2})`},
	{"MM", `(\d{2})`},
	{"DD", `(\d{2})`},
	{"Do", `(\d{1,2})(?:st|nd|rd|th)`},
	{"M", `(\d{1,2})`},
	{"D", `(\d{1,2})`},
}

// unsupported tokens make a date ambiguous for day granularity.
var unsupportedTokens = []string{"gggg", "GGGG", "ww", "WW", "Q", "X", "x"}

func compileLayout(format string) (*dateLayout, error) {
	var (
		expr   strings.Builder
		fields []string
	)
	expr.WriteString("^")

	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("daily note format %q: unterminated [", format)
			}
			expr.WriteString(regexp.QuoteMeta(format[i+1 : i+end]))
			i += end + 1
			continue
		}

		matched := false
		for _, tok := range momentTokens {
			if strings.HasPrefix(format[i:], tok.token) {
				expr.WriteString(tok.expr)
				if strings.HasPrefix(tok.expr, "(") && !strings.HasPrefix(tok.expr, "(?:") {
					fields = append(fields, tok.token)
				}
				i += len(tok.token)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, tok := range unsupportedTokens {
			if strings.HasPrefix(format[i:], tok) {
				return nil, fmt.Errorf("daily note format %q: token %q is not a day format", format, tok)
			}
		}
		expr.WriteString(regexp.QuoteMeta(format[i : i+1]))
		i++
	}
	expr.WriteString("$")

	has := func(tokens ...string) bool {
		return slices.ContainsFunc(tokens, func(t string) bool { return slices.Contains(fields, t) })
	}
	if !has("YYYY", "YY") || !has("MMMM", "MMM", "MM", "M") || !has("DD", "D", "Do") {
		return nil, fmt.Errorf("daily note format %q: needs year, month and day", format)
	}

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("daily note format %q: %w", format, err)
	}
	return &dateLayout{re: re, fields: fields}, nil
}

func (l *dateLayout) parse(s string) (time.Time, bool) {
	m := l.re.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	year, month, day := -1, -1, -1
	for i, field := range l.fields {
		v := m[i+1]
		switch field {
		case "YYYY":
			year, _ = strconv.Atoi(v)
		case "YY":
			n, _ := strconv.Atoi(v)
			year = 2000 + n
			if n > 68 {
				year = 1900 + n
			}
		case "MMMM":
			month = slices.Index(monthsLong, v) + 1
		case "MMM":
			month = slices.Index(monthsShort, v) + 1
		case "MM", "M":
			month, _ = strconv.Atoi(v)
		case "DD", "D", "Do":
			day, _ = strconv.Atoi(v)
		}
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
