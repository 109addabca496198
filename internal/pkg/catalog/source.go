package catalog

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelProof/app/repository"
)

// Config selects and tunes the catalog source.
type Config struct {
	Source       string // database | drive
	GoogleAPIKey string
	CacheTTL     time.Duration
}

// NewSource builds the configured source. The listing is cached in Redis when
// a client is given.
func NewSource(cfg Config, repos *repository.Repositories, client *redis.Client) (Source, error) {
	var base Source
	switch cfg.Source {
	case "", "database":
		base = NewDatabaseSource(repos.Event, repos.Photo)
	case "drive":
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("CATALOG_SOURCE=drive requires GOOGLE_API_KEY")
		}
		base = NewDriveSource(cfg.GoogleAPIKey, "", nil)
	default:
		return nil, fmt.Errorf("unknown CATALOG_SOURCE %q", cfg.Source)
	}

	log.Infof("[Catalog] Using %s source", sourceName(cfg.Source))
	if client == nil {
		return base, nil
	}
	return cachedSource{EventLookup: base, CachedListing: NewCachedListing(base, client, cfg.CacheTTL)}, nil
}

func sourceName(s string) string {
	if s == "" {
		return "database"
	}
	return s
}
