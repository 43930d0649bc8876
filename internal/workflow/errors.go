package workflow

import "fmt"

// Code classifies a workflow failure. All workflow outcomes are typed
// results; callers branch on the code, never on message text.
type Code string

const (
	CodeIllegalTransition      Code = "ILLEGAL_TRANSITION"
	CodeMissingAssignment      Code = "MISSING_ASSIGNMENT"
	CodeInvalidAssignee        Code = "INVALID_ASSIGNEE"
	CodeRoleMismatch           Code = "ROLE_MISMATCH"
	CodeInactiveUser           Code = "INACTIVE_USER"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeNotFound               Code = "NOT_FOUND"
	CodeInvalidInput           Code = "INVALID_INPUT"
	CodeInternal               Code = "INTERNAL"
)

// Error is a typed workflow failure.
type Error struct {
	Code    Code
	Message string
	// Field names the offending request field for assignment and input
	// failures, so callers can render field-level form errors.
	Field string
	cause error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a typed workflow error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause to a typed workflow error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NotFound reports a missing entity.
func NotFound(kind, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s '%s' not found", kind, id)}
}

// InvalidInput reports a field-level validation failure.
func InvalidInput(field, message string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message, Field: field}
}

// IllegalTransition reports a (status, role, target) combination not present
// in the transition table.
func IllegalTransition(from, to fmt.Stringer, role Role) *Error {
	return &Error{
		Code:    CodeIllegalTransition,
		Message: fmt.Sprintf("transition %s -> %s is not available to role %s", from, to, role),
	}
}

// MissingAssignment reports a transition that requires an assignee none was
// provided for.
func MissingAssignment(field string) *Error {
	return &Error{Code: CodeMissingAssignment, Message: "an assignee must be selected", Field: field}
}

// ConcurrentModification reports that the entity changed between read and
// write. The caller should re-read and may retry once.
func ConcurrentModification(kind, id string) *Error {
	return &Error{
		Code:    CodeConcurrentModification,
		Message: fmt.Sprintf("%s '%s' was updated elsewhere, refresh and retry", kind, id),
	}
}

// CodeOf extracts the workflow code from an error, or CodeInternal for
// untyped errors.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeInternal
}

func (s StoryStatus) String() string    { return string(s) }
func (s BulletinStatus) String() string { return string(s) }
