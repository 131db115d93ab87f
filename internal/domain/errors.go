package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// FailureKind classifies why a generation attempt failed.
type FailureKind string

const (
	FailureValidation      FailureKind = "validation"
	FailureSubmission      FailureKind = "submission_failed"
	FailureInvalidResponse FailureKind = "provider_response_invalid"
	FailureJobFailed       FailureKind = "provider_job_failed"
	FailurePollTimeout     FailureKind = "poll_timeout"
	FailureTransport       FailureKind = "transport"
)

// GenerationError is the failure result of a generation attempt. Detail
// carries the raw provider payload or last observed state so callers can
// surface it for support and the mirrored record can be annotated.
type GenerationError struct {
	Kind   FailureKind
	Detail string
	Err    error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Err != nil && e.Detail != "":
		return fmt.Sprintf("generation %s: %v: %s", e.Kind, e.Err, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("generation %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("generation %s", e.Kind)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError builds a classified failure with a diagnostic detail.
func NewGenerationError(kind FailureKind, detail string) *GenerationError {
	return &GenerationError{Kind: kind, Detail: detail}
}

// WrapGenerationError classifies an underlying error, keeping it unwrappable.
func WrapGenerationError(kind FailureKind, err error, detail string) *GenerationError {
	return &GenerationError{Kind: kind, Detail: detail, Err: err}
}

// FailureKindOf returns the classification of err, or an empty kind when
// err is not a GenerationError.
func FailureKindOf(err error) FailureKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}
