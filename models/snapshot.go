package models

// Snapshot is an ordered collection of records observed at one point in time.
type Snapshot []*Parking

// Keys returns the set of identity keys in the snapshot.
func (s Snapshot) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(s))
	for _, p := range s {
		keys[p.Key()] = struct{}{}
	}
	return keys
}

// Diff holds the records that appeared and disappeared between two snapshots.
type Diff struct {
	Added   []*Parking
	Removed []*Parking
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Report holds the computed summary of the current snapshot and its diff.
type Report struct {
	TotalSpots   int
	AddedSpots   int
	RemovedSpots int
	SpotsByArea  map[string]int
	SpotsByKind  map[string]int
}
