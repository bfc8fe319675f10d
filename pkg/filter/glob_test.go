// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package filter

import (
	"testing"
)

func TestMatchGlob_BasicPatterns(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"exact match", "Inbox.md", "Inbox.md", true},
		{"exact no match", "Inbox.md", "Outbox.md", false},

		{"star prefix", "note.md", "*.md", true},
		{"star suffix", "draft_plan", "draft_*", true},
		{"star middle", "draft_plan_v2", "draft_*_v2", true},
		{"star no match ext", "note.canvas", "*.md", false},

		{"doublestar prefix any depth", "a/b/c/note.md", "**/*.md", true},
		{"doublestar prefix root", "note.md", "**/*.md", true},
		{"doublestar suffix", "Templates/daily/morning.md", "Templates/**", true},
		{"doublestar full path", "Archive/2020/01/old.md", "Archive/**", true},

		{"question single", "Q1.md", "Q?.md", true},
		{"question no match", "Q10.md", "Q?.md", false},

		{"char class match", "2024-01.md", "202[34]-01.md", true},
		{"char class no match", "2022-01.md", "202[34]-01.md", false},
		{"char range match", "day5.md", "day[0-9].md", true},
		{"char range no match", "daya.md", "day[0-9].md", false},
		{"negated class match", "note.md", "note.[!x]d", true},
		{"negated class no match", "note.xd", "note.[!x]d", false},

		{"dot dir exact", ".trash", ".trash/**", true},
		{"dot dir nested", ".trash/old/a.md", ".trash/**", true},

		{"implicit prefix", "Projects/Inbox.md", "Inbox.md", true},
		{"implicit prefix nested", "a/b/c/Inbox.md", "Inbox.md", true},

		{"dir pattern exact", "Templates", "Templates/**", true},
		{"nested dir", "Work/Templates", "Templates/**", true},
		{"nested dir file", "Work/Templates/weekly.md", "Templates/**", true},
		{"prefix is not dir", "Work/TemplatesOld/a.md", "Templates/**", false},

		{"complex nested", "Boards/Sprint/retro.excalidraw.md", "**/*.excalidraw.md", true},
		{"complex no match", "Boards/Sprint/retro.md", "**/*.excalidraw.md", false},

		{"empty path", "", "**", true},
		{"empty pattern", "note.md", "", false},
		{"path with dots", "v1.2.3.notes.md", "*.md", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchGlob(tt.path, tt.pattern)
			if got != tt.want {
				t.Errorf("MatchGlob(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestMatchCharClass(t *testing.T) {
	tests := []struct {
		name  string
		c     byte
		class string
		want  bool
	}{
		{"simple match", 'a', "abc", true},
		{"simple no match", 'd', "abc", false},
		{"range match", 'e', "a-z", true},
		{"range no match", 'E', "a-z", false},
		{"digit range", '5', "0-9", true},
		{"negated match", 'd', "!abc", true},
		{"negated no match", 'a', "!abc", false},
		{"caret negation", 'd', "^abc", true},
		{"mixed", 'f', "a-z0-9", true},
		{"empty class", 'a', "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchCharClass(tt.c, tt.class)
			if got != tt.want {
				t.Errorf("matchCharClass(%c, %q) = %v, want %v", tt.c, tt.class, got, tt.want)
			}
		})
	}
}

func TestMatchSegment_Complex(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"multi star", "Work/2024/plan.md", "Work/*/*.md", true},
		{"multi star deep", "a/b/c/d.md", "a/*/c/*.md", true},
		{"star does not cross dirs", "Work/2024/q1/plan.md", "Work/*/plan.md", false},

		{"doublestar middle", "Work/a/b/plan.md", "Work/**/plan.md", true},
		{"doublestar middle deep", "a/b/c/d/e/f.md", "a/**/f.md", true},

		{"mixed wildcards", "daily_notes/entry_1.md", "daily_*/*_?.md", true},

		{"file in dir", "Inbox/file.md", "Inbox/*", true},
		{"nested file", "Inbox/sub/file.md", "Inbox/*/*", true},
		{"unterminated class literal", "[draft.md", "[draft.md", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchSegment(tt.path, tt.pattern, 0, 0)
			if got != tt.want {
				t.Errorf("matchSegment(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
			}
		})
	}
}
