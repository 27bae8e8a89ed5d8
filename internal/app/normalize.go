package app

import (
	"math"
	"strings"
	"time"
	"unicode"

	"skardu_hotels/internal/domain"
)

const (
	defaultStarRating = 3
	defaultCurrency   = "PKR"
	defaultSource     = "unknown"

	// Applied when only min_price is known. Kept from the legacy dataset.
	maxPriceMarkup = 1.2
)

// CleanText drops everything except letters, digits, underscore, whitespace,
// '.', ',' and '-', then collapses whitespace runs and trims.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	kept := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsSpace(r):
			return r
		case r == '_', r == '.', r == ',', r == '-':
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(kept), " ")
}

// NormalizeRating maps any raw rating onto the 1..5 star scale. Values that
// are not numbers default to 3.
func NormalizeRating(v any) int {
	if _, isBool := v.(bool); isBool {
		return defaultStarRating
	}
	f, ok := floatOf(v)
	if !ok || math.IsNaN(f) {
		return defaultStarRating
	}
	f = math.RoundToEven(f)
	if f < 1 {
		return 1
	}
	if f > 5 {
		return 5
	}
	return int(f)
}

// NormalizeRecord accepts any decoded JSON value; only objects can become
// hotels.
func NormalizeRecord(v any, now time.Time) domain.Outcome {
	raw, ok := v.(map[string]any)
	if !ok {
		return domain.Rejected(domain.ErrNotObject, "")
	}
	return Normalize(raw, now)
}

// Normalize turns one raw record into a canonical hotel or a rejection.
// now only feeds the scraped_at default.
func Normalize(raw domain.RawHotel, now time.Time) domain.Outcome {
	rawName := textOf(raw["name"])

	h := domain.Hotel{
		ID:          textOf(raw["id"]),
		Name:        CleanText(rawName),
		Description: CleanText(textOf(raw["description"])),
		StarRating:  NormalizeRating(raw["star_rating"]),
		ContactInfo: mapContactInfo(lookupMap(raw, "contact_info")),
		PriceRange:  mapPriceRange(lookupMap(raw, "price_range")),
		Amenities:   mapAmenities(raw["amenities"]),
		Images:      stringsOf(raw["images"]),
		Source:      strings.TrimSpace(textOf(raw["source"])),
		ScrapedAt:   strings.TrimSpace(textOf(raw["scraped_at"])),
	}
	// blank provenance counts as missing
	if h.Source == "" {
		h.Source = defaultSource
	}
	if h.ScrapedAt == "" {
		h.ScrapedAt = now.Format(time.RFC3339)
	}

	if h.Name == "" {
		return domain.Rejected(domain.ErrMissingName, rawName)
	}
	if h.ContactInfo.City == "" {
		return domain.Rejected(domain.ErrMissingCity, rawName)
	}
	return domain.Accepted(h)
}

func mapContactInfo(m map[string]any) domain.ContactInfo {
	return domain.ContactInfo{
		Phone:   CleanText(textOf(m["phone"])),
		Email:   CleanText(textOf(m["email"])),
		Website: CleanText(textOf(m["website"])),
		Address: CleanText(textOf(m["address"])),
		City:    CleanText(textOf(m["city"])),
		Region:  CleanText(textOf(m["region"])),
	}
}

func mapPriceRange(m map[string]any) domain.PriceRange {
	pr := domain.PriceRange{Currency: defaultCurrency, PricePerNight: true}
	if c, ok := m["currency"].(string); ok && strings.TrimSpace(c) != "" {
		pr.Currency = strings.TrimSpace(c)
	}
	if b, ok := m["price_per_night"].(bool); ok {
		pr.PricePerNight = b
	}

	minP, hasMin := positivePrice(m["min_price"])
	maxP, hasMax := positivePrice(m["max_price"])
	switch {
	case !hasMin && !hasMax:
		return pr
	case !hasMax:
		maxP = minP * maxPriceMarkup
	}
	pr.MinPrice, pr.MaxPrice = minP, maxP
	return pr
}

// positivePrice treats missing, unparsable, zero and negative values alike:
// the price is unknown.
func positivePrice(v any) (float64, bool) {
	f, ok := floatOf(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

func mapAmenities(v any) []domain.Amenity {
	out := []domain.Amenity{}
	list, _ := v.([]any)
	for _, it := range list {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, domain.Amenity{
			Name:        CleanText(textOf(m["name"])),
			Description: CleanText(textOf(m["description"])),
			IsAvailable: boolOf(m["is_available"], true),
		})
	}
	return out
}
