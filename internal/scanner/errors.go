package scanner

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned by Scheduler.Run when the run context ended
// before every candidate was resolved. Everything recorded up to that point
// is on disk.
var ErrInterrupted = errors.New("scan interrupted")

// PersistenceError is a failed write to the result file or the available
// list. It aborts the scan.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
