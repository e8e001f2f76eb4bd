package model

import (
	"errors"
	"fmt"
)

// FailureKind classifies an invocation failure. The retry policy keys on this
// tag rather than on concrete provider error types.
type FailureKind int

const (
	// KindRateLimited means the provider signalled backoff-worthy throttling.
	KindRateLimited FailureKind = iota
	// KindTransient means a network/connection/timeout-class error from the
	// provider call itself (distinct from the orchestrator's own timeout).
	KindTransient
	// KindAuth means a missing or invalid credential.
	KindAuth
	// KindNotFound means the model is unknown to the provider.
	KindNotFound
	// KindPermanent means any other provider error.
	KindPermanent
	// KindTimeout means the orchestrator's own deadline cut the call short.
	KindTimeout
)

// String returns the string representation of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindPermanent:
		return "permanent"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Retryable reports whether the kind is worth retrying with backoff.
func (k FailureKind) Retryable() bool {
	return k == KindRateLimited || k == KindTransient
}

// Failure is a classified invocation error. It wraps the underlying provider
// error so callers can still unwrap it, while the Kind tag gives the retry
// policy something to match on.
type Failure struct {
	Kind FailureKind
	Err  error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Unwrap returns the underlying provider error.
func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err with a failure kind.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Failf constructs a Failure from a format string.
func Failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from err. Unclassified errors report
// KindPermanent, matching the catch-all of the taxonomy.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindPermanent
}
