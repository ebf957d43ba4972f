package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanMeta contains metadata about a scan
type ScanMeta struct {
	ID          string     `json:"id"`
	Target      string     `json:"target"`
	Mode        string     `json:"mode"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      ScanStatus `json:"status"`
	ScanDir     string     `json:"scan_dir"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Available   int        `json:"available"`
	Errors      int        `json:"errors"`
	Runs        int        `json:"runs"`
}

// NewScan creates a new scan record for target (the mode key) with
// initialized metadata
func NewScan(target, mode string) *ScanMeta {
	return &ScanMeta{
		ID:        uuid.New().String(),
		Target:    target,
		Mode:      mode,
		StartedAt: time.Now(),
		Status:    StatusPending,
	}
}
