// Package catalog provides a two-tier read cache for the station catalogue:
// a bounded, expiring in-memory LRU in front of the durable station store.
// The catalogue is reference data that changes rarely, so a short TTL keeps
// resolution requests off the database without a separate invalidation path.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/repo"
)

// DefaultTTL is how long cached catalogue data is served before the next
// read goes back to the store.
const DefaultTTL = 5 * time.Minute

// DefaultSize bounds the per-station LRU tier.
const DefaultSize = 1024

// catalogueKey is the single key under which the full catalogue snapshot
// lives in its LRU tier.
const catalogueKey = "catalogue"

// Cache is the two-tier catalogue reader. Safe for concurrent use; the LRU
// tiers are internally locked and the station repo is read-only.
type Cache struct {
	stations repo.StationRepo
	byID     *expirable.LRU[uuid.UUID, domain.Station]
	snapshot *expirable.LRU[string, []domain.Station]
}

// New constructs a Cache in front of the given station repo.
// size bounds the per-station tier; ttl applies to both tiers.
func New(stations repo.StationRepo, size int, ttl time.Duration) *Cache {
	return &Cache{
		stations: stations,
		byID:     expirable.NewLRU[uuid.UUID, domain.Station](size, nil, ttl),
		snapshot: expirable.NewLRU[string, []domain.Station](1, nil, ttl),
	}
}

// Catalogue returns the full station list, from the snapshot tier when fresh.
// A store read refills both tiers.
func (c *Cache) Catalogue(ctx context.Context) ([]domain.Station, error) {
	if cached, ok := c.snapshot.Get(catalogueKey); ok {
		return cached, nil
	}

	stations, err := c.stations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog.Cache.Catalogue: %w", err)
	}

	c.snapshot.Add(catalogueKey, stations)
	for _, st := range stations {
		c.byID.Add(st.ID, st)
	}
	return stations, nil
}

// Station returns a single station, from the LRU tier when present.
// Returns domain.ErrNotFound for unknown IDs.
func (c *Cache) Station(ctx context.Context, id uuid.UUID) (domain.Station, error) {
	if cached, ok := c.byID.Get(id); ok {
		return cached, nil
	}

	st, err := c.stations.GetByID(ctx, id)
	if err != nil {
		return domain.Station{}, err
	}

	c.byID.Add(st.ID, st)
	return st, nil
}

// Invalidate drops both tiers. Call after seeding stations in tests or
// bootstrap tooling.
func (c *Cache) Invalidate() {
	c.snapshot.Purge()
	c.byID.Purge()
}
