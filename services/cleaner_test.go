package services

import (
	"testing"

	"parking-finder/utils"
)

const sampleBlock = `
    Område:   Ryd
    Adress:  Gatan 1

    Type: Garage
    Hyra:` + "\u00a0" + `500 kr/mån
    Tillträde: 2024-01-01
    Antal intresse: 2
`

func TestCleanerExtractsFields(t *testing.T) {
	c := NewCleaner(utils.Nop())

	spots := c.Clean([]string{sampleBlock})
	if len(spots) != 1 {
		t.Fatalf("expected 1 parking, got %d", len(spots))
	}

	p := spots[0]
	tests := []struct {
		name, got, want string
	}{
		{"area", p.Area(), "Ryd"},
		{"address", p.Address(), "Gatan 1"},
		{"kind", p.Kind(), "Garage"},
		{"rent", p.Rent(), "500 kr/mån"},
		{"access", p.Access(), "2024-01-01"},
		{"interest", p.Interest(), "2"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestCleanerValueOnNextLine(t *testing.T) {
	c := NewCleaner(utils.Nop())
	block := "Område:\nRyd\nAdress:\nGatan 1\nType:\nGarage\nHyra:\n500\nTillträde:\nnu\nAntal intresse:\n1"

	spots := c.Clean([]string{block})
	if len(spots) != 1 {
		t.Fatalf("expected 1 parking, got %d", len(spots))
	}
	if spots[0].Address() != "Gatan 1" || spots[0].Interest() != "1" {
		t.Errorf("unexpected fields: %v", spots[0])
	}
}

func TestCleanerDropsBlocksMissingLabels(t *testing.T) {
	c := NewCleaner(utils.Nop())

	spots := c.Clean([]string{"Område: Ryd\nAdress: Gatan 1", "", "   "})
	if len(spots) != 0 {
		t.Errorf("expected no parking, got %d", len(spots))
	}
}

func TestCleanerDropsEmptyValues(t *testing.T) {
	c := NewCleaner(utils.Nop())
	block := "Område: Ryd\nAdress:\nType: Garage\nHyra: 500\nTillträde: nu\nAntal intresse: 1"

	spots := c.Clean([]string{block})
	if len(spots) != 0 {
		t.Errorf("expected the block with an empty address to be dropped, got %v", spots)
	}
}

func TestCleanerDeduplicatesAcrossCalls(t *testing.T) {
	c := NewCleaner(utils.Nop())

	first := c.Clean([]string{sampleBlock, sampleBlock})
	second := c.Clean([]string{sampleBlock})

	if len(first) != 1 {
		t.Errorf("first page: got %d, want 1", len(first))
	}
	if len(second) != 0 {
		t.Errorf("second page: got %d, want 0", len(second))
	}
	if c.Seen() != 1 {
		t.Errorf("Seen: got %d, want 1", c.Seen())
	}
}

func TestNormaliseBlock(t *testing.T) {
	got := normaliseBlock("  a  \r\n\n\t b\n   \n")
	if got != "a\nb" {
		t.Errorf("normaliseBlock: got %q, want %q", got, "a\nb")
	}
}
