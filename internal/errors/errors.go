// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the cardboard CLI.
//
// UserError carries what went wrong, why, and how to fix it, together with
// the exit code the CLI should terminate with.
//
//	err := errors.NewVaultError(
//	    "Cannot read board settings",
//	    "data.json is not readable",
//	    "Check the permissions of .obsidian/plugins/card-board/",
//	    underlyingErr,
//	)
//	errors.FatalError(err, false)
//	// Error: Cannot read board settings
//	// Cause: data.json is not readable
//	// Fix:   Check the permissions of .obsidian/plugins/card-board/
//
// In --json mode the same error is written as
//
//	{"error": "...", "cause": "...", "fix": "...", "exit_code": 3}
//
// # Exit Codes
//
//   - ExitSuccess (0)
//   - ExitConfig (1): CLI or board settings cannot be loaded
//   - ExitEngine (2): the engine failed to start or exited early
//   - ExitVault (3): vault walk or file I/O failed
//   - ExitInput (4): bad arguments
//   - ExitPermission (5)
//   - ExitNotFound (6): vault, board or command not found
//   - ExitInternal (10): bugs
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitEngine     = 2
	ExitVault      = 3
	ExitInput      = 4
	ExitPermission = 5
	ExitNotFound   = 6

	// ExitInternal signals a bug that should be reported.
	ExitInternal = 10
)

// UserError is an error with context for the person running the CLI.
type UserError struct {
	// Message says what went wrong.
	Message string
	// Cause says why, when known.
	Cause string
	// Fix is an actionable suggestion.
	Fix      string
	ExitCode int
	// Err is the wrapped error, if any.
	Err error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func newError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: code, Err: err}
}

// NewConfigError reports a CLI config or board settings problem.
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newError(ExitConfig, msg, cause, fix, err)
}

// NewEngineError reports an engine that could not be started or that
// stopped before loading the tasks.
func NewEngineError(msg, cause, fix string, err error) *UserError {
	return newError(ExitEngine, msg, cause, fix, err)
}

// NewVaultError reports a failure reading or writing vault files.
func NewVaultError(msg, cause, fix string, err error) *UserError {
	return newError(ExitVault, msg, cause, fix, err)
}

// NewInputError reports invalid arguments.
func NewInputError(msg, cause, fix string) *UserError {
	return newError(ExitInput, msg, cause, fix, nil)
}

// NewPermissionError reports denied file access.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return newError(ExitPermission, msg, cause, fix, err)
}

// NewNotFoundError reports a missing vault, board or command.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newError(ExitNotFound, msg, cause, fix, nil)
}

// NewInternalError reports a bug.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newError(ExitInternal, msg, cause, fix, err)
}

// Wrap turns err into a UserError with msg as its message. A UserError
// anywhere in err's chain is returned unchanged. Permission and
// not-exist errors get their own exit codes; anything else gets fallback.
func Wrap(err error, fallback int, msg string) *UserError {
	if err == nil {
		return nil
	}
	var ue *UserError
	if stderrors.As(err, &ue) {
		return ue
	}
	switch {
	case stderrors.Is(err, fs.ErrPermission):
		return NewPermissionError(msg, err.Error(), "Check the file permissions of the vault", err)
	case stderrors.Is(err, fs.ErrNotExist):
		return newError(ExitNotFound, msg, err.Error(), "", err)
	default:
		return newError(fallback, msg, err.Error(), "", err)
	}
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error for a terminal. Empty Cause and Fix lines are
// omitted. Colors are disabled by noColor or the NO_COLOR environment
// variable.
func (e *UserError) Format(noColor bool) string {
	// color.NoColor is global; restore it afterwards.
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// ErrorJSON is the --json form of a UserError.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the error to its JSON form.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// FatalError prints err to stderr and exits. A UserError in err's chain
// selects the exit code; anything else exits with ExitInternal.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	var ue *UserError
	if stderrors.As(err, &ue) {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
