package services

import (
	"testing"

	"parking-finder/models"
)

func mustParking(t *testing.T, area, address, kind, rent, access, interest string) *models.Parking {
	t.Helper()
	p, err := models.NewParking(access, address, area, interest, rent, kind)
	if err != nil {
		t.Fatalf("NewParking: %v", err)
	}
	return p
}

func keys(spots []*models.Parking) map[string]bool {
	out := make(map[string]bool, len(spots))
	for _, p := range spots {
		out[p.Key()] = true
	}
	return out
}
