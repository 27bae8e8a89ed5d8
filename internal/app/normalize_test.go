package app_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"testing/quick"
	"time"

	"skardu_hotels/internal/app"
	"skardu_hotels/internal/domain"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"":                               "",
		"   ":                            "",
		"  Hotel   One\t\nSkardu ":        "Hotel One Skardu",
		"Shangrila™ Resort!!":            "Shangrila Resort",
		"info@skardu.pk":                 "infoskardu.pk",
		"+92-123-4567890":                "92-123-4567890",
		"Café, Deosai-View_1.":           "Café, Deosai-View_1.",
		"a \x01 b":                       "a b",
		"سکردو ہوٹل":                     "سکردو ہوٹل",
		"Hotel (Main) & Spa / Lounge #1": "Hotel Main Spa Lounge 1",
	}
	for in, want := range cases {
		if got := app.CleanText(in); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	f := func(s string) bool {
		once := app.CleanText(s)
		return app.CleanText(once) == once
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 2000}); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"a \x01 b", "  x  y ", "!! !!", "a\v\vb"} {
		if !f(s) {
			t.Fatalf("not idempotent for %q", s)
		}
	}
}

func TestNormalizeRating(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{nil, 3},
		{"", 3},
		{"abc", 3},
		{true, 3},
		{[]any{4.0}, 3},
		{math.NaN(), 3},
		{4.0, 4},
		{4.4, 4},
		{4.6, 5},
		{2.5, 2}, // half to even
		{3.5, 4},
		{0.0, 1},
		{-7.0, 1},
		{9.0, 5},
		{math.Inf(1), 5},
		{" 4 ", 4},
		{"4.5", 4},
		{json.Number("5"), 5},
		{json.Number("12"), 5},
		{2, 2},
	}
	for _, c := range cases {
		if got := app.NormalizeRating(c.in); got != c.want {
			t.Errorf("NormalizeRating(%#v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNormalizeRating_AlwaysInRange(t *testing.T) {
	f := func(r float64) bool {
		got := app.NormalizeRating(r)
		return got >= 1 && got <= 5
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func validRaw() map[string]any {
	return map[string]any{
		"id":          "hotel_123",
		"name":        "Skardu Grand Hotel",
		"description": "Luxury hotel with mountain views!",
		"star_rating": 4,
		"contact_info": map[string]any{
			"phone":   "+92-123-4567890",
			"email":   "info@skardugrand.com",
			"website": "https://skardugrand.com",
			"address": "123 Main Street",
			"city":    "Skardu",
			"region":  "Gilgit-Baltistan",
		},
		"price_range": map[string]any{
			"min_price":       5000,
			"max_price":       15000,
			"currency":        "PKR",
			"price_per_night": true,
		},
		"amenities": []any{
			map[string]any{"name": "Wi-Fi", "description": "Free high-speed internet", "is_available": true},
		},
		"images":     []any{"https://img/1.jpg"},
		"source":     "booking.com",
		"scraped_at": "2025-01-01T00:00:00Z",
	}
}

func TestNormalize_FullRecord(t *testing.T) {
	o := app.Normalize(validRaw(), fixedNow)
	if !o.OK() {
		t.Fatalf("unexpected rejection: %v", o.Rejected)
	}
	h := o.Hotel
	if h.ID != "hotel_123" || h.Name != "Skardu Grand Hotel" || h.StarRating != 4 {
		t.Fatalf("unexpected hotel: %+v", h)
	}
	if h.Description != "Luxury hotel with mountain views" {
		t.Fatalf("description not cleaned: %q", h.Description)
	}
	if h.ContactInfo.City != "Skardu" || h.ContactInfo.Website != "httpsskardugrand.com" {
		t.Fatalf("unexpected contact info: %+v", h.ContactInfo)
	}
	if h.PriceRange.MinPrice != 5000 || h.PriceRange.MaxPrice != 15000 {
		t.Fatalf("unexpected price range: %+v", h.PriceRange)
	}
	if len(h.Images) != 1 || h.Images[0] != "https://img/1.jpg" {
		t.Fatalf("images must pass through unmodified: %v", h.Images)
	}
	if h.Source != "booking.com" || h.ScrapedAt != "2025-01-01T00:00:00Z" {
		t.Fatalf("unexpected provenance: %q %q", h.Source, h.ScrapedAt)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	o := app.Normalize(map[string]any{
		"name":         "Concordia Motel",
		"contact_info": map[string]any{"city": "Skardu"},
	}, fixedNow)
	if !o.OK() {
		t.Fatalf("unexpected rejection: %v", o.Rejected)
	}
	h := o.Hotel
	if h.StarRating != 3 || h.Source != "unknown" || h.ScrapedAt != "2025-03-14T09:30:00Z" {
		t.Fatalf("defaults not applied: %+v", h)
	}
	if h.Amenities == nil || h.Images == nil || len(h.Amenities) != 0 || len(h.Images) != 0 {
		t.Fatalf("expected empty non-nil lists, got %#v %#v", h.Amenities, h.Images)
	}
	want := domain.PriceRange{MinPrice: 0, MaxPrice: 0, Currency: "PKR", PricePerNight: true}
	if h.PriceRange != want {
		t.Fatalf("price range = %+v, want %+v", h.PriceRange, want)
	}
}

func TestNormalize_EmptyProvenanceUsesDefaults(t *testing.T) {
	h := app.Normalize(map[string]any{
		"name":         "Concordia Motel",
		"contact_info": map[string]any{"city": "Skardu"},
		"source":       "  ",
		"scraped_at":   "",
	}, fixedNow).Hotel
	if h.Source != "unknown" || h.ScrapedAt != "2025-03-14T09:30:00Z" {
		t.Fatalf("blank provenance should fall back to defaults: %q %q", h.Source, h.ScrapedAt)
	}
}

func TestNormalize_PriceDerivation(t *testing.T) {
	cases := []struct {
		name     string
		pr       any
		min, max float64
	}{
		{"min only", map[string]any{"min_price": 100}, 100, 120},
		{"empty", map[string]any{}, 0, 0},
		{"missing", nil, 0, 0},
		{"not an object", "cheap", 0, 0},
		{"max only", map[string]any{"max_price": 900.0}, 0, 900},
		{"numeric strings", map[string]any{"min_price": "2500", "max_price": "4000"}, 2500, 4000},
		{"unparsable min", map[string]any{"min_price": "call us"}, 0, 0},
		{"zero max derives", map[string]any{"min_price": json.Number("1000"), "max_price": 0}, 1000, 1200},
	}
	for _, c := range cases {
		raw := map[string]any{"name": "H", "contact_info": map[string]any{"city": "Gilgit"}}
		if c.pr != nil {
			raw["price_range"] = c.pr
		}
		o := app.Normalize(raw, fixedNow)
		if !o.OK() {
			t.Fatalf("%s: unexpected rejection", c.name)
		}
		got := o.Hotel.PriceRange
		if got.MinPrice != c.min || got.MaxPrice != c.max {
			t.Errorf("%s: got (%v, %v), want (%v, %v)", c.name, got.MinPrice, got.MaxPrice, c.min, c.max)
		}
	}
}

func TestNormalize_CurrencyAndPerNight(t *testing.T) {
	raw := map[string]any{
		"name":         "H",
		"contact_info": map[string]any{"city": "Hunza"},
		"price_range":  map[string]any{"min_price": 50, "currency": "USD", "price_per_night": false},
	}
	pr := app.Normalize(raw, fixedNow).Hotel.PriceRange
	if pr.Currency != "USD" || pr.PricePerNight {
		t.Fatalf("pass-through failed: %+v", pr)
	}

	raw["price_range"] = map[string]any{"currency": 42, "price_per_night": "yes"}
	pr = app.Normalize(raw, fixedNow).Hotel.PriceRange
	if pr.Currency != "PKR" || !pr.PricePerNight {
		t.Fatalf("defaults not applied for wrong types: %+v", pr)
	}
}

func TestNormalize_AmenityFiltering(t *testing.T) {
	raw := map[string]any{
		"name":         "H",
		"contact_info": map[string]any{"city": "Skardu"},
		"amenities":    []any{"not-a-dict", map[string]any{"name": "WiFi"}},
	}
	o := app.Normalize(raw, fixedNow)
	if !o.OK() {
		t.Fatalf("unexpected rejection")
	}
	want := domain.Amenity{Name: "WiFi", Description: "", IsAvailable: true}
	if len(o.Hotel.Amenities) != 1 || o.Hotel.Amenities[0] != want {
		t.Fatalf("amenities = %+v, want [%+v]", o.Hotel.Amenities, want)
	}
}

func TestNormalize_AmenityOrderAndAvailability(t *testing.T) {
	raw := map[string]any{
		"name":         "H",
		"contact_info": map[string]any{"city": "Skardu"},
		"amenities": []any{
			map[string]any{"name": "Parking", "is_available": false},
			map[string]any{"name": "Parking", "is_available": "false"},
			map[string]any{"name": "Heating!", "is_available": 0},
			map[string]any{"name": "Jeep safari", "is_available": nil},
			map[string]any{"name": "Laundry", "is_available": "yes"},
		},
	}
	got := app.Normalize(raw, fixedNow).Hotel.Amenities
	want := []domain.Amenity{
		{Name: "Parking", IsAvailable: false},
		{Name: "Parking", IsAvailable: false},
		{Name: "Heating", IsAvailable: false},
		{Name: "Jeep safari", IsAvailable: true},
		{Name: "Laundry", IsAvailable: true},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d amenities, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("amenity %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNormalize_RejectionRule(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want error
	}{
		{"missing city", map[string]any{"name": "Hotel One"}, domain.ErrMissingCity},
		{"empty city", map[string]any{"name": "Hotel One", "contact_info": map[string]any{"city": "  "}}, domain.ErrMissingCity},
		{"symbol-only city", map[string]any{"name": "Hotel One", "contact_info": map[string]any{"city": "??"}}, domain.ErrMissingCity},
		{"missing name", map[string]any{"contact_info": map[string]any{"city": "Skardu"}}, domain.ErrMissingName},
		{"whitespace name", map[string]any{"name": " \t ", "contact_info": map[string]any{"city": "Skardu"}}, domain.ErrMissingName},
	}
	for _, c := range cases {
		o := app.Normalize(c.raw, fixedNow)
		if o.OK() {
			t.Fatalf("%s: expected rejection", c.name)
		}
		if !errors.Is(o.Rejected, c.want) {
			t.Errorf("%s: reason = %v, want %v", c.name, o.Rejected.Reason, c.want)
		}
	}

	ok := app.Normalize(map[string]any{"name": "Hotel One", "contact_info": map[string]any{"city": "Skardu"}}, fixedNow)
	if !ok.OK() {
		t.Fatalf("record with name and city must be accepted")
	}
}

func TestNormalize_RejectionKeepsRawName(t *testing.T) {
	o := app.Normalize(map[string]any{"name": "  Deosai Camp  "}, fixedNow)
	if o.OK() || o.Rejected.RawName != "  Deosai Camp  " {
		t.Fatalf("expected rejection carrying raw name, got %+v", o)
	}
}

func TestNormalizeRecord_NotAnObject(t *testing.T) {
	for _, v := range []any{"hotel", 12.0, nil, []any{}} {
		o := app.NormalizeRecord(v, fixedNow)
		if o.OK() || !errors.Is(o.Rejected, domain.ErrNotObject) {
			t.Fatalf("NormalizeRecord(%#v) should reject as not-object", v)
		}
	}
}

func TestNormalize_ScalarCoercion(t *testing.T) {
	o := app.Normalize(map[string]any{
		"id":           json.Number("90210"),
		"name":         json.Number("7"),
		"contact_info": map[string]any{"city": "Skardu", "phone": 923001234567.0},
		"images":       []any{"a.jpg", 3.0, map[string]any{"url": "b.jpg"}},
	}, fixedNow)
	if !o.OK() {
		t.Fatalf("unexpected rejection")
	}
	h := o.Hotel
	if h.ID != "90210" || h.Name != "7" || h.ContactInfo.Phone != "923001234567" {
		t.Fatalf("scalar coercion failed: %+v", h)
	}
	if len(h.Images) != 1 || h.Images[0] != "a.jpg" {
		t.Fatalf("only string images survive: %v", h.Images)
	}
}
