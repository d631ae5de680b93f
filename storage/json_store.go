package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"parking-finder/models"
	"parking-finder/utils"
)

// JSONStore keeps the snapshot in a pretty-printed JSON file.
type JSONStore struct {
	path   string
	logger *utils.Logger
}

// NewJSONStore returns a store backed by the file at path. The file and its
// directory are created on the first Save.
func NewJSONStore(path string, logger *utils.Logger) *JSONStore {
	return &JSONStore{path: path, logger: logger}
}

// Load reads the previous snapshot. A missing file is a cold start; a file
// that is not a valid snapshot is deleted; any other read error is logged.
// All three cases return an empty snapshot.
func (s *JSONStore) Load(ctx context.Context) models.Snapshot {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("parking state file '%s' does not exist, will create", s.path)
		return models.Snapshot{}
	}
	if err != nil {
		s.logger.Error("unexpected os error when reading parking state file '%s': %v", s.path, err)
		return models.Snapshot{}
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn("corrupted parking state file '%s' (%v), will recreate", s.path, err)
		_ = os.Remove(s.path)
		return models.Snapshot{}
	}

	s.logger.Debug("previous parking data: %v", snapshot)
	s.logger.Info("loaded %d previous parking spaces from state file", len(snapshot.Keys()))
	return snapshot
}

// Save overwrites the state file with snapshot.
func (s *JSONStore) Save(ctx context.Context, snapshot models.Snapshot) error {
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("json store: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("json store: create state dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("json store: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("json store: replace %q: %w", s.path, err)
	}

	s.logger.Info("saved %d parking spots to file '%s'", len(snapshot), s.path)
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func decodeSnapshot(data []byte) (models.Snapshot, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errors.New("snapshot is null")
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	for i, p := range snapshot {
		if p == nil {
			return nil, fmt.Errorf("entry %d is null", i)
		}
	}
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}
	return snapshot, nil
}

// encodeSnapshot renders a JSON array with two-space indentation and
// unescaped non-ASCII text.
func encodeSnapshot(snapshot models.Snapshot) ([]byte, error) {
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
