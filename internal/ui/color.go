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

// Package ui holds the CLI's colored output helpers.
//
// Red marks errors, yellow warnings, green success and cyan information.
// Bold is for headers and labels, dim for paths and ids. Colors follow
// --no-color, NO_COLOR and whether stdout is a terminal (fatih/color).
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// Out receives every helper's output. In --json mode the CLI points it
// at stderr so that stdout carries only JSON.
var Out io.Writer = color.Output

// InitColors forces colors off when noColor is set.
func InitColors(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

func line(c *color.Color, prefix, msg string) {
	_, _ = c.Fprintln(Out, prefix+msg)
}

// Success prints "✓ msg" in green.
func Success(msg string) { line(Green, "✓ ", msg) }

// Successf is Success with formatting.
func Successf(format string, args ...any) { Success(fmt.Sprintf(format, args...)) }

// Warning prints "⚠ msg" in yellow.
func Warning(msg string) { line(Yellow, "⚠ ", msg) }

// Warningf is Warning with formatting.
func Warningf(format string, args ...any) { Warning(fmt.Sprintf(format, args...)) }

// Error prints "✗ msg" in red.
func Error(msg string) { line(Red, "✗ ", msg) }

// Errorf is Error with formatting.
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }

// Info prints "ℹ msg" in cyan.
func Info(msg string) { line(Cyan, "ℹ ", msg) }

// Infof is Info with formatting.
func Infof(format string, args ...any) { Info(fmt.Sprintf(format, args...)) }

// Header prints text in bold, underlined with '='.
func Header(text string) {
	_, _ = Bold.Fprintln(Out, text)
	_, _ = fmt.Fprintln(Out, strings.Repeat("=", len([]rune(text))))
}

// SubHeader prints text in bold.
func SubHeader(text string) {
	_, _ = Bold.Fprintln(Out, text)
}

// Field prints an indented "label value" row with the label padded to
// width.
func Field(label string, width int, value any) {
	pad := width - len([]rune(label))
	if pad < 1 {
		pad = 1
	}
	_, _ = fmt.Fprintf(Out, "  %s%s%v\n", Label(label), strings.Repeat(" ", pad), value)
}

// Label returns text in bold.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns text dimmed.
func DimText(text string) string { return Dim.Sprint(text) }

// CountText returns count in cyan.
func CountText(count int) string { return Cyan.Sprint(count) }
