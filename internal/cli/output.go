package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/rollbook/internal/ledger"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rule rejection or failed scenarios
	ExitCommandError = 2 // Command error (bad arguments, config, storage I/O)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the command already wrote the error to its
	// output, so main should not print it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// reportedError wraps err once it has been written to the command output.
func reportedError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err, Reported: true}
}

// GetExitCode extracts the exit code from an error.
// Ledger rejections map to ExitFailure, other ledger errors to
// ExitCommandError. Returns ExitFailure for anything else.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if code := ledger.CodeOf(err); code != "" {
		if ledger.IsRejection(err) {
			return ExitFailure
		}
		return ExitCommandError
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // ledger code, e.g. "NOT_OWNER"
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// LedgerError reports a ledger error and returns the ExitError the command
// should return: ExitFailure for rule rejections, ExitCommandError otherwise.
func (f *OutputFormatter) LedgerError(err error) error {
	code := ledger.CodeOf(err)
	if code == "" {
		_ = f.Error("ERROR", err.Error(), nil)
		return reportedError(ExitCommandError, "command failed", err)
	}

	var details any
	var le *ledger.Error
	if errors.As(err, &le) {
		switch {
		case len(le.Fields) > 0:
			details = map[string]any{"fields": le.Fields}
		case le.Key != 0:
			details = map[string]any{"key": le.Key}
		}
	}
	_ = f.Error(string(code), userMessage(code, err), details)

	exit := ExitCommandError
	if ledger.IsRejection(err) {
		exit = ExitFailure
	}
	return reportedError(exit, string(code), err)
}

// userMessage is the text shown for a ledger error code.
func userMessage(code ledger.Code, err error) string {
	switch code {
	case ledger.CodeNoActiveIdentity:
		return "no active identity: pass --as <name> or use 'id <name>' in the shell"
	case ledger.CodeEmptyIdentity:
		return "identity must not be empty"
	case ledger.CodeMissingField:
		return err.Error()
	case ledger.CodeNotFound:
		return "no record with that key"
	case ledger.CodeNotOwner:
		return "only the owner can change this record"
	case ledger.CodeRecordReferenced:
		return "record is referenced; toggle the reference off before deleting"
	case ledger.CodeIO:
		return "change applied but not saved: " + err.Error()
	default:
		return err.Error()
	}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
