package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parking-finder/models"
	"parking-finder/utils"
)

func mustParking(t *testing.T, area, address, kind, rent, access, interest string) *models.Parking {
	t.Helper()
	p, err := models.NewParking(access, address, area, interest, rent, kind)
	if err != nil {
		t.Fatalf("NewParking: %v", err)
	}
	return p
}

func sampleSnapshot(t *testing.T) models.Snapshot {
	return models.Snapshot{
		mustParking(t, "RYD", "Gatan 1", "Garage", "500", "2024-01-01", "2"),
		mustParking(t, "ABYGOT", "Åbylundsgatan 7", "Carport motorvärmare", "1 050 kr", "Omgående", "14"),
	}
}

func TestJSONStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewJSONStore(filepath.Join(t.TempDir(), "cache", "state.json"), utils.Nop())
	want := sampleSnapshot(t)

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := store.Load(ctx)

	if len(got) != len(want) {
		t.Fatalf("Load: got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Key() != want[i].Key() {
			t.Errorf("record %d: got %q, want %q", i, got[i].Key(), want[i].Key())
		}
	}
}

func TestJSONStoreMissingFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"), utils.Nop())

	got := store.Load(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("expected an empty, non-nil snapshot, got %v", got)
	}
}

func TestJSONStoreCorruptionRecovery(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "\x00\x01garbage{"},
		{"empty file", ""},
		{"null", "null"},
		{"null entry", "[null]"},
		{"wrong shape", `{"access":"a"}`},
		{"missing field", `[{"access":"a","address":"b","area":"c","interest":"d","rent":"e"}]`},
		{"extra field", `[{"access":"a","address":"b","area":"c","interest":"d","rent":"e","kind":"f","id":"1"}]`},
		{"non-text field", `[{"access":"a","address":"b","area":"c","interest":3,"rent":"e","kind":"f"}]`},
	}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
			t.Fatalf("%s: write: %v", tt.name, err)
		}

		got := NewJSONStore(path, utils.Nop()).Load(context.Background())
		if len(got) != 0 {
			t.Errorf("%s: expected empty snapshot, got %v", tt.name, got)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s: corrupted state file should have been removed (stat err %v)", tt.name, err)
		}
	}
}

func TestJSONStoreEmptyArrayIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := NewJSONStore(path, utils.Nop()).Load(context.Background())
	if len(got) != 0 {
		t.Errorf("expected empty snapshot, got %v", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("a valid empty state file must be kept: %v", err)
	}
}

func TestJSONStoreUnreadableIsNotDeleted(t *testing.T) {
	// A directory in place of the state file cannot be read as a file.
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got := NewJSONStore(path, utils.Nop()).Load(context.Background())
	if len(got) != 0 {
		t.Errorf("expected empty snapshot, got %v", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("unreadable state must not be removed: %v", err)
	}
}

func TestJSONStoreFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewJSONStore(path, utils.Nop())
	p := mustParking(t, "ABYGOT", "Åbylundsgatan 7 <A>", "Kallgarage", "500", "Omgående", "1")

	if err := store.Save(context.Background(), models.Snapshot{p}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	want := strings.Join([]string{
		"[",
		"  {",
		`    "access": "Omgående",`,
		`    "address": "Åbylundsgatan 7 <A>",`,
		`    "area": "ABYGOT",`,
		`    "interest": "1",`,
		`    "rent": "500",`,
		`    "kind": "Kallgarage"`,
		"  }",
		"]",
	}, "\n")
	if string(data) != want {
		t.Errorf("state file:\n got %s\nwant %s", data, want)
	}
}

func TestJSONStoreSaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewJSONStore(path, utils.Nop())

	if err := store.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Errorf("state file: got %q, want %q", data, "[]")
	}
}

func TestJSONStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewJSONStore(filepath.Join(t.TempDir(), "state.json"), utils.Nop())
	snap := sampleSnapshot(t)

	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, snap[:1]); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if got := store.Load(ctx); len(got) != 1 {
		t.Errorf("expected the second save to replace the first, got %d records", len(got))
	}
}

func TestJSONStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(filepath.Join(blocker, "state.json"), utils.Nop())
	if err := store.Save(context.Background(), sampleSnapshot(t)); err == nil {
		t.Error("expected Save to fail when the parent is a regular file")
	}
}
