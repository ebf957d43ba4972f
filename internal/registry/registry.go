// Package registry queries the availability service of the registry and
// classifies its replies.
package registry

import (
	"context"
	"errors"
	"fmt"
)

// Status is the availability of a label.
type Status string

const (
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
)

// Answer is a successful registry reply.
type Answer struct {
	Status  Status
	Code    int
	Message string
}

// Checker resolves one label. It blocks until the registry answers, the
// context ends or the request fails. Errors wrapped with Permanent must not be
// retried; every other error is treated as transient.
type Checker interface {
	Check(ctx context.Context, label string) (*Answer, error)
}

// ErrRateLimited is returned when the registry refuses a query because of its
// request rate limit.
var ErrRateLimited = errors.New("registry rate limit exceeded")

// ReplyError is a reply that does not state availability.
type ReplyError struct {
	Code    int
	Message string
	Err     error
}

func (e *ReplyError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("registry reply %d", e.Code)
	}
	return fmt.Sprintf("registry reply %d: %s", e.Code, e.Message)
}

func (e *ReplyError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the scheduler records it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}
