package domain

import (
	"strings"

	"github.com/google/uuid"
)

// RawHotel is one scraped record as decoded from JSON. Nothing about its
// shape is guaranteed.
type RawHotel = map[string]any

type Hotel struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StarRating  int         `json:"star_rating"`
	ContactInfo ContactInfo `json:"contact_info"`
	PriceRange  PriceRange  `json:"price_range"`
	Amenities   []Amenity   `json:"amenities"`
	Images      []string    `json:"images"`
	Source      string      `json:"source"`
	ScrapedAt   string      `json:"scraped_at"`
}

type ContactInfo struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
	Address string `json:"address"`
	City    string `json:"city"`
	Region  string `json:"region"`
}

type PriceRange struct {
	MinPrice      float64 `json:"min_price"`
	MaxPrice      float64 `json:"max_price"`
	Currency      string  `json:"currency"`
	PricePerNight bool    `json:"price_per_night"`
}

type Amenity struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsAvailable bool   `json:"is_available"`
}

// hotelNamespace scopes synthesized keys for hotels that arrive without an id.
var hotelNamespace = uuid.MustParse("6f1c3b9e-5d0a-4c41-9a57-2b8f0d7e41a3")

// Key identifies a hotel across runs and stores. The external id wins when
// present; otherwise a name-based UUID of name and city is used.
func (h Hotel) Key() string {
	if id := strings.TrimSpace(h.ID); id != "" {
		return id
	}
	sig := strings.ToLower(h.Name) + "|" + strings.ToLower(h.ContactInfo.City)
	return uuid.NewSHA1(hotelNamespace, []byte(sig)).String()
}
