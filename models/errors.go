package models

import (
	"fmt"
	"strings"
)

// ValidationError reports why a set of attributes is not a valid Parking.
type ValidationError struct {
	Missing    []string
	Empty      []string
	NotText    []string
	Unexpected []string
}

func (e *ValidationError) failed() bool {
	return len(e.Missing)+len(e.Empty)+len(e.NotText)+len(e.Unexpected) > 0
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, "empty "+strings.Join(e.Empty, ", "))
	}
	if len(e.NotText) > 0 {
		parts = append(parts, "not text "+strings.Join(e.NotText, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Unexpected, ", "))
	}
	return fmt.Sprintf("invalid parking: %s", strings.Join(parts, "; "))
}
