package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrTransport  = errors.New("transport failure")
	ErrMalformed  = errors.New("malformed response")
	ErrRejected   = errors.New("request rejected")
	ErrAuth       = errors.New("authentication rejected")
)

// Failure describes a failed remote call. It matches its Kind sentinel and
// the underlying cause with errors.Is.
type Failure struct {
	Kind       error
	Op         string
	Status     int
	RetryAfter time.Duration
	Err        error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Op)
	if f.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", f.Status)
	}
	if f.Kind != nil {
		b.WriteString(": ")
		b.WriteString(f.Kind.Error())
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if f.Kind != nil {
		errs = append(errs, f.Kind)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// RetryAfter returns the server-requested delay carried by err, if any.
func RetryAfter(err error) time.Duration {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.RetryAfter
	}
	return 0
}

type FailureKind string

const (
	KindNone       FailureKind = ""
	KindValidation FailureKind = "validation"
	KindTransport  FailureKind = "transport"
	KindMalformed  FailureKind = "malformed_response"
	KindRejected   FailureKind = "rejected"
	KindAuth       FailureKind = "auth"
	KindCanceled   FailureKind = "canceled"
	KindUnknown    FailureKind = "unknown"
)

func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrRejected):
		return KindRejected
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// Fatal reports whether a failure of this kind must halt the whole sweep.
func (k FailureKind) Fatal() bool {
	switch k {
	case KindAuth, KindValidation, KindCanceled:
		return true
	default:
		return false
	}
}

func (k FailureKind) Retryable() bool {
	return k == KindTransport
}
