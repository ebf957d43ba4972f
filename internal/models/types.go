package models

// ScanStatus represents the current state of a scan
type ScanStatus string

const (
	StatusPending     ScanStatus = "pending"
	StatusRunning     ScanStatus = "running"
	StatusComplete    ScanStatus = "complete"
	StatusInterrupted ScanStatus = "interrupted"
	StatusFailed      ScanStatus = "failed"
)

// Finished reports whether a run has ended with s.
func (s ScanStatus) Finished() bool {
	switch s {
	case StatusComplete, StatusInterrupted, StatusFailed:
		return true
	}
	return false
}

// Outcome classifies the resolution of one candidate
type Outcome string

const (
	OutcomeAvailable Outcome = "available"
	OutcomeTaken     Outcome = "taken"
	OutcomeError     Outcome = "error"
	// OutcomeSkipped marks candidates resolved by a prior run. It is counted
	// but never written to the result file.
	OutcomeSkipped Outcome = "skipped"
)

// Valid reports whether o is one of the persisted outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeAvailable, OutcomeTaken, OutcomeError:
		return true
	}
	return false
}
