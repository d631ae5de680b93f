package storage

import (
	"context"
	"errors"

	"parking-finder/models"
)

// Mirrored reads from a primary store and writes to the primary and every
// mirror. A failing mirror does not prevent the others from being written.
type Mirrored struct {
	Primary SnapshotStore
	Mirrors []SnapshotWriter
}

func (m *Mirrored) Load(ctx context.Context) models.Snapshot {
	return m.Primary.Load(ctx)
}

func (m *Mirrored) Save(ctx context.Context, snapshot models.Snapshot) error {
	errs := []error{m.Primary.Save(ctx, snapshot)}
	for _, w := range m.Mirrors {
		errs = append(errs, w.Save(ctx, snapshot))
	}
	return errors.Join(errs...)
}

func (m *Mirrored) Close() error {
	errs := []error{m.Primary.Close()}
	for _, w := range m.Mirrors {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
