package app

import (
	"context"
	"strings"
	"time"

	"skardu_hotels/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// HotelService is the read side over the hotel store.
type HotelService struct {
	repo  domain.HotelRepository
	cache domain.Cache // optional
	ttl   time.Duration
}

func NewHotelService(r domain.HotelRepository, c domain.Cache, ttl time.Duration) *HotelService {
	return &HotelService{repo: r, cache: c, ttl: ttl}
}

func hotelCacheKey(key string) string { return "hotel:" + key }

func (s *HotelService) GetHotel(ctx context.Context, key string) (domain.Hotel, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Hotel{}, domain.ErrNotFound
	}
	ck := hotelCacheKey(key)
	if s.cache != nil {
		var h domain.Hotel
		if ok, _ := s.cache.Get(ctx, ck, &h); ok {
			return h, nil
		}
	}
	h, err := s.repo.GetHotel(ctx, key)
	if err != nil {
		return domain.Hotel{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, ck, h, int(s.ttl.Seconds()))
	}
	return h, nil
}

// ListHotels clamps the limit to [1, 500], defaulting to 50.
func (s *HotelService) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	q.City = strings.TrimSpace(q.City)
	switch {
	case q.Limit <= 0:
		q.Limit = defaultListLimit
	case q.Limit > maxListLimit:
		q.Limit = maxListLimit
	}
	return s.repo.ListHotels(ctx, q)
}
