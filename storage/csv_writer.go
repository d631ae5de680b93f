package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"parking-finder/models"
)

// CSVWriter exports snapshots to a CSV file, replacing its content on every
// Save. It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

// NewCSVWriter prepares a writer for path. Intermediate directories are
// created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

// Save writes the header row and one row per record.
func (c *CSVWriter) Save(ctx context.Context, snapshot models.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		models.FieldArea, models.FieldAddress, models.FieldKind,
		models.FieldRent, models.FieldAccess, models.FieldInterest,
	}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, p := range snapshot {
		row := []string{p.Area(), p.Address(), p.Kind(), p.Rent(), p.Access(), p.Interest()}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

func (c *CSVWriter) Close() error {
	return nil
}
