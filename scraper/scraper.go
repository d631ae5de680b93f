// Package scraper defines the producer side of a monitoring run.
package scraper

import (
	"context"

	"parking-finder/models"
)

// Source yields the records currently listed by a site.
type Source interface {
	Scrape(ctx context.Context) (models.Snapshot, error)
}
