package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a rejected or partially failed ledger operation.
//
// Rule rejections (every code except CodeIO) leave the collection and the
// session untouched. CodeIO is returned when a mutation was applied in memory
// but the snapshot could not be saved.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Key identifies the affected record, when there is one.
	Key int64

	// Fields lists the offending input fields (for CodeMissingField).
	Fields []string

	// Err is the underlying cause (for CodeIO).
	Err error
}

// Code categorizes ledger errors.
type Code string

const (
	// CodeNoActiveIdentity means an owner-gated operation ran before SetIdentity.
	CodeNoActiveIdentity Code = "NO_ACTIVE_IDENTITY"

	// CodeEmptyIdentity means SetIdentity received a blank string.
	CodeEmptyIdentity Code = "EMPTY_IDENTITY"

	// CodeMissingField means a required field was empty after trimming.
	CodeMissingField Code = "MISSING_FIELD"

	// CodeNotFound means no record has the given key.
	CodeNotFound Code = "NOT_FOUND"

	// CodeNotOwner means the active identity does not own the record.
	CodeNotOwner Code = "NOT_OWNER"

	// CodeRecordReferenced means the record is referenced and cannot be deleted.
	CodeRecordReferenced Code = "RECORD_REFERENCED"

	// CodeIO means the store failed to save the snapshot.
	CodeIO Code = "IO_ERROR"
)

// Sentinels for errors.Is. Matching is by Code only.
var (
	ErrNoActiveIdentity = &Error{Code: CodeNoActiveIdentity, Message: "no active identity"}
	ErrEmptyIdentity    = &Error{Code: CodeEmptyIdentity, Message: "identity is empty"}
	ErrMissingField     = &Error{Code: CodeMissingField, Message: "required field missing"}
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "record not found"}
	ErrNotOwner         = &Error{Code: CodeNotOwner, Message: "record belongs to another identity"}
	ErrRecordReferenced = &Error{Code: CodeRecordReferenced, Message: "record is referenced"}
	ErrIO               = &Error{Code: CodeIO, Message: "save failed"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " "))
	}
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	case len(e.Fields) > 0:
		return fmt.Sprintf("%s: %s (fields=%s)", e.Code, msg, strings.Join(e.Fields, ","))
	case e.Key != 0:
		return fmt.Sprintf("%s: %s (key=%d)", e.Code, msg, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the Code from err. Returns "" if err is not a ledger error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsRejection reports whether err is a rule rejection, as opposed to a
// persistence failure.
func IsRejection(err error) bool {
	code := CodeOf(err)
	return code != "" && code != CodeIO
}

func newNoActiveIdentity() *Error {
	return &Error{Code: CodeNoActiveIdentity, Message: "no active identity"}
}

func newEmptyIdentity() *Error {
	return &Error{Code: CodeEmptyIdentity, Message: "identity is empty"}
}

func newNotFound(key int64) *Error {
	return &Error{Code: CodeNotFound, Message: "record not found", Key: key}
}

func newNotOwner(key int64) *Error {
	return &Error{Code: CodeNotOwner, Message: "record belongs to another identity", Key: key}
}

func newReferenced(key int64) *Error {
	return &Error{Code: CodeRecordReferenced, Message: "record is referenced and cannot be deleted", Key: key}
}

func newMissingField(fields []string) *Error {
	return &Error{Code: CodeMissingField, Message: "required field missing", Fields: fields}
}

func newIOError(err error) *Error {
	return &Error{Code: CodeIO, Message: "save failed", Err: err}
}
