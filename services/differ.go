package services

import "parking-finder/models"

// Diff compares two snapshots by identity key. Added holds the records of
// current whose key is absent from previous, in current's order; Removed
// holds the records of previous whose key is absent from current, in
// previous's order.
func Diff(previous, current models.Snapshot) models.Diff {
	previousKeys := previous.Keys()
	currentKeys := current.Keys()

	var d models.Diff
	for _, p := range current {
		if _, ok := previousKeys[p.Key()]; !ok {
			d.Added = append(d.Added, p)
		}
	}
	for _, p := range previous {
		if _, ok := currentKeys[p.Key()]; !ok {
			d.Removed = append(d.Removed, p)
		}
	}
	return d
}
