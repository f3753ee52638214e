package user

import "errors"

// FailureKind classifies why an account could not be created.
type FailureKind string

const (
	FailureEmailInUse   FailureKind = "email-in-use"
	FailureWeakPassword FailureKind = "weak-password"
	FailureInvalidEmail FailureKind = "invalid-email"
	FailureOther        FailureKind = "other"
)

type AccountError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *AccountError) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *AccountError) Unwrap() error { return e.Err }

func NewAccountError(kind FailureKind, msg string, err error) *AccountError {
	return &AccountError{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the failure kind of err, FailureOther for anything untyped.
func KindOf(err error) FailureKind {
	var accErr *AccountError
	if errors.As(err, &accErr) {
		return accErr.Kind
	}
	return FailureOther
}
