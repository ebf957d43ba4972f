package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"
)

const (
	// bucketScans maps a scan ID to its JSON ScanMeta.
	bucketScans = "scans"
	// bucketTargets maps a mode key to the JSON list of its scan IDs.
	bucketTargets = "targets"

	openTimeout = time.Second
)

// Store is the scan history. A resumed run finds the scan it continues here.
type Store struct {
	db *bbolt.DB
}

// NewStore opens (or creates) the history database at path.
func NewStore(path string) (*Store, error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if errors.Is(err, bberrors.ErrTimeout) {
		return nil, fmt.Errorf("scan database %s is in use by another lichecker process", path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening scan database %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketScans, bucketTargets} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
