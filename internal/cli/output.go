package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/fieldsync/internal/model"
	"github.com/roach88/fieldsync/internal/provision"
	"github.com/roach88/fieldsync/internal/remote"
	"github.com/roach88/fieldsync/internal/store"
)

// Process exit codes.
const (
	ExitSuccess = 0
	// ExitFailure: a write was rejected, a record is missing, or a sync or
	// scenario failed.
	ExitFailure = 1
	// ExitCommandError: the command could not run at all, e.g. bad config,
	// an unopenable database or an unreadable input file.
	ExitCommandError = 2
)

// Codes reported in the error envelope.
const (
	ErrCodeGeneric  = "E001"
	ErrCodeNotFound = "E002"
	ErrCodeInvalid  = "E003"
	ErrCodeStorage  = "E004"
	ErrCodeConfig   = "E005"
	ErrCodeRemote   = "E006"
	ErrCodeFile     = "E007"
)

// ExitError carries the process exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error

	reported bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Reported is true when an OutputFormatter already printed the error, so
// main must not print it again.
func (e *ExitError) Reported() bool { return e.reported }

// NewExitError returns an unreported error with the given exit code.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError is NewExitError with an underlying cause.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitFailure
	}
}

// CLIResponse is the envelope every JSON-mode command prints.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error half of CLIResponse.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a JSON envelope.
// Diagnostics go to ErrWriter so they never mix with JSON on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

func (f *OutputFormatter) envelope(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success prints data, enveloped in JSON mode.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.json() {
		return f.envelope(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Render prints data as a JSON envelope, or hands the writer to text.
func (f *OutputFormatter) Render(data interface{}, text func(w io.Writer)) error {
	if f.json() {
		return f.Success(data)
	}
	text(f.Writer)
	return nil
}

// Error prints an error. Text mode shows details only when verbose.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.json() {
		return f.envelope(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail prints err with the code and details its kind calls for and returns
// the reported ExitError the command should return.
func (f *OutputFormatter) Fail(message string, err error) error {
	kind := classifyError(err)
	return f.fail(kind.code, kind.exit, message, err, kind.details)
}

// FailWith is Fail with the error and exit codes chosen by the caller.
func (f *OutputFormatter) FailWith(code string, exit int, message string, err error) error {
	return f.fail(code, exit, message, err, nil)
}

func (f *OutputFormatter) fail(code string, exit int, message string, err error, details interface{}) error {
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), details)
	return &ExitError{Code: exit, Message: message, Err: err, reported: true}
}

// VerboseLog prints a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

type errorKind struct {
	code    string
	exit    int
	details interface{}
}

// classifyError picks the envelope code for err. Anything unrecognized
// came out of the database.
func classifyError(err error) errorKind {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorKind{ErrCodeInvalid, ExitFailure, verr.Fields}
	case errors.Is(err, store.ErrNotFound):
		return errorKind{ErrCodeNotFound, ExitFailure, nil}
	case errors.Is(err, remote.ErrNoEndpoint):
		return errorKind{ErrCodeConfig, ExitCommandError, nil}
	case errors.Is(err, provision.ErrEmptyPayload):
		return errorKind{ErrCodeInvalid, ExitFailure, nil}
	case errors.Is(err, context.Canceled):
		return errorKind{ErrCodeGeneric, ExitFailure, nil}
	default:
		return errorKind{ErrCodeStorage, ExitFailure, nil}
	}
}
