package sources

import (
	"context"

	"github.com/varys-hq/varys/internal/models"
)

// Scraper is the contract for platform scrapers. One implementation per
// source platform; only Reddit is currently wired, but nothing assumes a
// single source.
type Scraper interface {
	GetName() string
	Scrape(ctx context.Context, company string, limit int) ([]models.ScrapedPost, error)
	IsEnabled() bool
}
