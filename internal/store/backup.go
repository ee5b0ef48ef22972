package store

import (
	"context"
	"errors"
	"os"

	"github.com/uptrace/bun/dialect"
)

// ErrSnapshotUnsupported is returned by Snapshot on non-SQLite databases.
var ErrSnapshotUnsupported = errors.New("store: snapshot requires sqlite")

// Snapshot writes a consistent copy of the SQLite database to path. An
// existing file at path is replaced.
func (s *Store) Snapshot(ctx context.Context, path string) error {
	if s.db.Dialect().Name() != dialect.SQLite {
		return ErrSnapshotUnsupported
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return storageError(err, "snapshot database")
	}
	return nil
}
