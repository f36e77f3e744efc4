package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes.
const (
	ExitSuccess      = 0 // query answered
	ExitFailure      = 1 // query failed (store error, invalid documents)
	ExitCommandError = 2 // bad flags, arguments or configuration
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
	// Reported is set once the error was written to the command output.
	Reported bool
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// commandError marks err as a usage or configuration problem.
func commandError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitCommandError, Err: err}
}

// reported reports whether err already reached the command output.
func reported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// exitCode extracts the exit code from err. Unmarked errors are failures.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// response is the JSON envelope of every command result.
type response struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// formatter writes command results. Logs go to stderr, so stdout stays
// parseable in JSON mode.
type formatter struct {
	format string
	runID  string
	w      io.Writer
}

// success writes data. text renders the human form; nil falls back to JSON.
func (f *formatter) success(data any, text func(w io.Writer)) error {
	if f.format == FormatJSON || text == nil {
		return json.NewEncoder(f.w).Encode(response{Status: "ok", RunID: f.runID, Data: data})
	}
	text(f.w)
	return nil
}

func (f *formatter) failure(err error) {
	if f.format == FormatJSON {
		_ = json.NewEncoder(f.w).Encode(response{Status: "error", RunID: f.runID, Error: err.Error()})
		return
	}
	fmt.Fprintf(f.w, "Error: %v\n", err)
}
