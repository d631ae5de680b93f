package storage

import (
	"context"

	"parking-finder/models"
)

// SnapshotWriter is the interface any snapshot sink must satisfy.
type SnapshotWriter interface {
	Save(ctx context.Context, snapshot models.Snapshot) error
	Close() error
}

// SnapshotStore persists the last observed snapshot between runs.
// Load never fails: missing, corrupted or unreadable state yields an empty
// snapshot.
type SnapshotStore interface {
	SnapshotWriter
	Load(ctx context.Context) models.Snapshot
}
