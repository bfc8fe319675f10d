// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentShape = `{
  "version": "0.11.0",
  "data": {
    "globalSettings": {
      "filters": [{"tag": "pathFilter", "data": "Archive"}],
      "filterPolarity": "Deny",
      "taskCompletionFormat": "ObsidianCardBoard"
    },
    "boardConfigs": [
      {"tag": "dateBoardConfig", "data": {"title": "Today", "includeUndated": true}},
      {"tag": "tagBoardConfig", "data": {"title": "Projects"}}
    ]
  }
}`

func TestParse_CurrentShape(t *testing.T) {
	s, err := Parse([]byte(currentShape))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, "0.11.0", s.Version)
	assert.Equal(t, []Filter{{Tag: "pathFilter", Data: "Archive"}}, s.Global().Filters)
	assert.Equal(t, "Deny", s.Global().FilterPolarity)

	boards := s.Boards()
	require.Len(t, boards, 2)
	assert.Equal(t, "dateBoardConfig", boards[0].Tag)
	assert.Equal(t, "Today", boards[0].Title())
	assert.Equal(t, "Projects", boards[1].Title())
}

func TestParse_LegacyBoardShape(t *testing.T) {
	doc := `{
	  "version": "0.4.0",
	  "data": {
	    "boardConfigs": [
	      {"name": "Old Board", "completedCount": 5},
	      {"tag": "tagBoardConfig", "name": "Tagged"}
	    ]
	  }
	}`

	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	boards := s.Boards()
	require.Len(t, boards, 2)

	assert.Empty(t, boards[0].Tag)
	assert.Equal(t, "Old Board", boards[0].Title())
	assert.JSONEq(t, `5`, string(boards[0].Data["completedCount"]))
	_, hasName := boards[0].Data["name"]
	assert.False(t, hasName, "legacy name should become data.title")

	assert.Equal(t, "tagBoardConfig", boards[1].Tag)
	assert.Equal(t, "Tagged", boards[1].Title())

	// Legacy boards are written back as they were read.
	out, err := json.Marshal(boards[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Old Board","completedCount":5}`, string(out))
	out, err = json.Marshal(boards[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"tagBoardConfig","name":"Tagged"}`, string(out))
}

func TestParse_LegacyBoardKeepsWireShapeOnSave(t *testing.T) {
	doc := `{"version":"0.4.0","data":{"boardConfigs":[` +
		`{"name":"Old Board","title":"Shown","columns":[]},` +
		`{"data":"weird","name":"D"}]}}`

	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	boards := s.Boards()
	require.Len(t, boards, 2)
	assert.Equal(t, "Shown", boards[0].Title())
	assert.Equal(t, "D", boards[1].Title())

	out, err := Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "legacyBoardConfig")

	again, err := Parse(out)
	require.NoError(t, err)
	b0, err := json.Marshal(again.Boards()[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Old Board","title":"Shown","columns":[]}`, string(b0))
	b1, err := json.Marshal(again.Boards()[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":"weird","name":"D"}`, string(b1))
}

func TestBoardConfig_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"data title", `{"tag":"x","data":{"title":"A"}}`, "A"},
		{"data name fallback", `{"tag":"x","data":{"name":"B"}}`, "B"},
		{"legacy name", `{"name":"C"}`, "C"},
		{"no title anywhere", `{"tag":"x","data":{}}`, ""},
		{"title not a string", `{"tag":"x","data":{"title":42}}`, ""},
		{"data not an object", `{"data":"weird","name":"D"}`, "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b BoardConfig
			require.NoError(t, json.Unmarshal([]byte(tt.json), &b))
			assert.Equal(t, tt.want, b.Title())
		})
	}
}

func TestParse_PreservesUnknownFields(t *testing.T) {
	s, err := Parse([]byte(currentShape))
	require.NoError(t, err)

	out, err := Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, currentShape, string(out))
}

func TestParse_EmptyAndNull(t *testing.T) {
	for _, doc := range []string{"", "   \n", "null"} {
		s, err := Parse([]byte(doc))
		require.NoError(t, err, "doc %q", doc)
		assert.Nil(t, s, "doc %q", doc)
	}
}

func TestParse_AcceptsJSONC(t *testing.T) {
	doc := `{
	  // edited by hand
	  "version": "1.0",
	  "data": {"boardConfigs": [],},
	}`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "1.0", s.Version)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`{"version": `))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"version": 1}`))
	assert.Error(t, err)
}

func TestNilSettingsAccessors(t *testing.T) {
	var s *Settings
	assert.Empty(t, s.Global().Filters)
	assert.Nil(t, s.Boards())
	assert.Equal(t, "", VersionOf(s))

	out, err := Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, "null\n", string(out))
}

func TestNewBoardConfig(t *testing.T) {
	b := NewBoardConfig("dateBoardConfig", "Week")
	assert.Equal(t, "Week", b.Title())

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"dateBoardConfig","data":{"title":"Week"}}`, string(out))
}
