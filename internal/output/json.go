// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output writes the CLI's machine-readable output.
//
// Commands run with --json print one indented document to stdout with
// JSON, or a stream of compact records with Lines. Human-readable output
// lives in the ui package and errors in the errors package.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSON writes data to stdout, indented by two spaces.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data to w, indented by two spaces.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Lines writes each item as one compact JSON line (NDJSON) to w.
func Lines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode json line %d: %w", i, err)
		}
	}
	return nil
}

// Error is the JSON shape of a failure that is not a UserError.
type Error struct {
	Error string `json:"error"`
}

// JSONError writes err to stderr as {"error": "..."}.
func JSONError(err error) error {
	return JSONErrorTo(os.Stderr, err)
}

// JSONErrorTo writes err to w as {"error": "..."}.
func JSONErrorTo(w io.Writer, err error) error {
	return JSONTo(w, Error{Error: err.Error()})
}
