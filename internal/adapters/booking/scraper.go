package booking

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"skardu_hotels/internal/domain"
)

const Source = "booking.com"

var (
	amountRe   = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	currencyRe = regexp.MustCompile(`\b[A-Z]{3}\b`)

	// checked in order; longer symbols first
	symbols = []struct{ sym, code string }{
		{"US$", "USD"}, {"Rs", "PKR"}, {"₨", "PKR"}, {"€", "EUR"}, {"£", "GBP"}, {"$", "USD"},
	}
)

// Scraper turns Booking search pages into raw hotel records.
type Scraper struct {
	c   *Client
	now func() time.Time
}

var _ domain.Scraper = (*Scraper)(nil)

func NewScraper(c *Client) *Scraper { return &Scraper{c: c, now: time.Now} }

// ScrapeCity walks up to pages result pages and stops early at the first
// empty page. A listing linked from several pages is kept once. Errors after
// the first page return what was collected so far together with the error.
func (s *Scraper) ScrapeCity(ctx context.Context, city string, pages int) ([]domain.RawHotel, error) {
	if pages <= 0 {
		pages = 1
	}
	seen := map[string]struct{}{}
	var out []domain.RawHotel
	for p := 0; p < pages; p++ {
		u := s.c.SearchURL(city, p*PageSize)
		body, err := s.c.GetPage(ctx, u)
		if err != nil {
			if errors.Is(err, ErrNotFound) && p > 0 {
				break
			}
			return out, fmt.Errorf("page %d: %w", p+1, err)
		}
		base, _ := url.Parse(u)
		listings, err := ParseListings(bytes.NewReader(body), base)
		if err != nil {
			return out, fmt.Errorf("parse page %d: %w", p+1, err)
		}
		if len(listings) == 0 {
			break
		}
		scrapedAt := s.now().UTC().Format(time.RFC3339)
		for _, l := range listings {
			key := listingKey(l)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, ToRaw(l, city, scrapedAt))
		}
	}
	return out, nil
}

// listingKey is the link without its query (Booking adds per-search
// tracking parameters), or the name when there is no link.
func listingKey(l Listing) string {
	if l.URL == "" {
		return "name:" + strings.ToLower(l.Name)
	}
	if u, err := url.Parse(l.URL); err == nil {
		u.RawQuery, u.Fragment = "", ""
		return u.String()
	}
	return l.URL
}

// ToRaw maps a listing onto the raw record shape the normalizer reads.
// Unparsable price and score are left out so defaults apply downstream.
func ToRaw(l Listing, city, scrapedAt string) domain.RawHotel {
	sum := sha1.Sum([]byte(listingKey(l)))
	contact := map[string]any{"city": city}
	if l.Address != "" {
		contact["address"] = l.Address
	}
	raw := domain.RawHotel{
		"id":           "booking_" + hex.EncodeToString(sum[:])[:12],
		"name":         l.Name,
		"contact_info": contact,
		"images":       []any{},
		"source":       Source,
		"scraped_at":   scrapedAt,
	}
	if l.URL != "" {
		raw["url"] = l.URL
	}
	if l.Image != "" {
		raw["images"] = []any{l.Image}
	}
	if amount, cur, ok := ParsePrice(l.Price); ok {
		pr := map[string]any{"min_price": amount}
		if cur != "" {
			pr["currency"] = cur
		}
		raw["price_range"] = pr
	}
	if score, ok := ParseScore(l.Score); ok {
		// guest scores are out of 10; stars are out of 5
		raw["star_rating"] = math.Round(score/2*10) / 10
	}
	return raw
}

// ParsePrice reads the first amount of a displayed price such as
// "PKR 12,500" or "US$48". The currency is "" when not recognizable.
func ParsePrice(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	m := amountRe.FindString(s)
	if m == "" {
		return 0, "", false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || f <= 0 {
		return 0, "", false
	}
	cur := currencyRe.FindString(s)
	if cur == "" {
		for _, c := range symbols {
			if strings.Contains(s, c.sym) {
				cur = c.code
				break
			}
		}
	}
	return f, cur, true
}

// ParseScore reads a 0..10 guest score such as "8.4" or "Scored 8,4".
func ParseScore(s string) (float64, bool) {
	m := amountRe.FindString(strings.ReplaceAll(s, ",", "."))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f < 0 || f > 10 {
		return 0, false
	}
	return f, true
}
