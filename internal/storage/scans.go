package storage

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/stx-x/li-domain-checker/internal/models"
)

// RunProgress is what a finished run reports back to its scan record.
type RunProgress struct {
	// Processed counts candidates resolved across all runs.
	Processed int
	// Available is the size of the available list.
	Available int
	// Errors counts error records of the finished run.
	Errors int
}

// SaveScan stores meta as is and indexes it under its target.
func (s *Store) SaveScan(meta *models.ScanMeta) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putScan(tx, meta)
	})
}

// BeginRun records that another run of meta starts over total candidates.
// The run counter is taken from the stored record when there is one, so two
// runs never share a number.
func (s *Store) BeginRun(meta *models.ScanMeta, total int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		stored, err := getScan(tx, meta.ID)
		if err != nil {
			return err
		}
		if stored != nil {
			meta.Runs = stored.Runs
		}
		meta.Runs++
		meta.Total = total
		meta.Status = models.StatusRunning
		meta.CompletedAt = nil
		return putScan(tx, meta)
	})
}

// FinishRun stores the counters and final status of the current run of scan
// id and returns the updated record.
func (s *Store) FinishRun(id string, status models.ScanStatus, p RunProgress) (*models.ScanMeta, error) {
	var meta *models.ScanMeta
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		meta, err = getScan(tx, id)
		if err != nil {
			return err
		}
		if meta == nil {
			return fmt.Errorf("scan %s not found", id)
		}

		meta.Processed = p.Processed
		meta.Available = p.Available
		meta.Errors = p.Errors
		meta.Status = status
		meta.CompletedAt = nil
		if status.Finished() {
			now := time.Now()
			meta.CompletedAt = &now
		}
		return putScan(tx, meta)
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// GetScan returns the scan with id, or nil, nil when the ID is unknown.
func (s *Store) GetScan(id string) (*models.ScanMeta, error) {
	var meta *models.ScanMeta
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		meta, err = getScan(tx, id)
		return err
	})
	return meta, err
}

// ListScans returns the scans of target, newest first.
func (s *Store) ListScans(target string) ([]*models.ScanMeta, error) {
	var scans []*models.ScanMeta
	err := s.db.View(func(tx *bbolt.Tx) error {
		ids, err := scanIDs(tx, target)
		if err != nil {
			return err
		}
		for _, id := range ids {
			meta, err := getScan(tx, id)
			if err != nil {
				return err
			}
			if meta != nil {
				scans = append(scans, meta)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(scans, func(i, j int) bool {
		return scans[i].StartedAt.After(scans[j].StartedAt)
	})
	return scans, nil
}

// ListTargets returns every target that has at least one recorded scan.
func (s *Store) ListTargets() ([]string, error) {
	var targets []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketTargets)).ForEach(func(k, _ []byte) error {
			targets = append(targets, string(k))
			return nil
		})
	})
	return targets, err
}

func getScan(tx *bbolt.Tx, id string) (*models.ScanMeta, error) {
	data := tx.Bucket([]byte(bucketScans)).Get([]byte(id))
	if data == nil {
		return nil, nil
	}
	var meta models.ScanMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding scan %s: %w", id, err)
	}
	return &meta, nil
}

func putScan(tx *bbolt.Tx, meta *models.ScanMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding scan %s: %w", meta.ID, err)
	}
	if err := tx.Bucket([]byte(bucketScans)).Put([]byte(meta.ID), data); err != nil {
		return err
	}

	ids, err := scanIDs(tx, meta.Target)
	if err != nil {
		return err
	}
	if slices.Contains(ids, meta.ID) {
		return nil
	}
	data, err = json.Marshal(append(ids, meta.ID))
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(bucketTargets)).Put([]byte(meta.Target), data)
}

func scanIDs(tx *bbolt.Tx, target string) ([]string, error) {
	data := tx.Bucket([]byte(bucketTargets)).Get([]byte(target))
	if data == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decoding scan index for %s: %w", target, err)
	}
	return ids, nil
}
