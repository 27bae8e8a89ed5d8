package artifacts

import (
	"context"
	"strings"
	"sync"

	"skardu_hotels/internal/domain"
)

// Catalog is an in-memory HotelRepository, used when no database is
// configured and hotels come straight from the latest artifact.
type Catalog struct {
	mu     sync.RWMutex
	hotels []domain.Hotel
	byKey  map[string]int
}

func NewCatalog(hs []domain.Hotel) *Catalog {
	c := &Catalog{byKey: map[string]int{}}
	_ = c.UpsertHotels(context.Background(), hs)
	return c
}

func (c *Catalog) UpsertHotels(_ context.Context, hs []domain.Hotel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range hs {
		k := h.Key()
		if i, ok := c.byKey[k]; ok {
			c.hotels[i] = h
			continue
		}
		c.byKey[k] = len(c.hotels)
		c.hotels = append(c.hotels, h)
	}
	return nil
}

func (c *Catalog) GetHotel(_ context.Context, key string) (domain.Hotel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byKey[key]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return c.hotels[i], nil
}

func (c *Catalog) ListHotels(_ context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []domain.Hotel{}
	for _, h := range c.hotels {
		if q.City != "" && !strings.EqualFold(h.ContactInfo.City, q.City) {
			continue
		}
		out = append(out, h)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}
