package errors

import "fmt"

// Code is a stable machine-readable identifier for a domain error.
// Controllers key HTTP statuses off these, clients key UI flows off them.
type Code string

const (
	CodeValidation            Code = "VALIDATION"
	CodeNotFound              Code = "NOT_FOUND"
	CodeNotParticipant        Code = "NOT_PARTICIPANT"
	CodeNotApproved           Code = "NOT_APPROVED"
	CodeNoApprovedSwipe       Code = "NO_APPROVED_SWIPE"
	CodeAmbiguousCounterparty Code = "AMBIGUOUS_COUNTERPARTY"
	CodeInfrastructure        Code = "INFRA"
)

// Error is a domain error with a stable code and human-readable message.
// Infrastructure causes are wrapped, never exposed in the message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation signals missing or malformed input.
func Validation(msg string) *Error { return New(CodeValidation, msg) }

// NotFound signals a missing record or an unmet transition precondition.
func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

// NotParticipant signals an actor outside the conversation's two parties.
func NotParticipant() *Error {
	return New(CodeNotParticipant, "user is not a participant in this conversation")
}

// NotApproved signals a renter messaging without an approved swipe.
func NotApproved() *Error {
	return New(CodeNotApproved, "host has not approved swipe for this property")
}

// NoApprovedSwipe signals a host messaging with zero approved swipes.
func NoApprovedSwipe() *Error {
	return New(CodeNoApprovedSwipe, "no approved swipes found for this property")
}

// AmbiguousCounterparty signals a host messaging with several approved
// swipes and no explicit user id.
func AmbiguousCounterparty() *Error {
	return New(CodeAmbiguousCounterparty,
		"multiple approved swipes found, specify the user to start a conversation with")
}

// Infra wraps a store/connection failure. The cause stays internal.
func Infra(err error) *Error {
	return &Error{Code: CodeInfrastructure, Message: "internal error", cause: err}
}
