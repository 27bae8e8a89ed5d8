package artifacts

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"skardu_hotels/internal/domain"
)

// WriteRaw stores scraper output for one city as <city>_<stamp>.json, the
// input format of the batch processor.
func WriteRaw(dir, city string, records []domain.RawHotel, at time.Time) (string, error) {
	if records == nil {
		records = []domain.RawHotel{}
	}
	body, err := encodeJSON(records)
	if err != nil {
		return "", fmt.Errorf("encode raw records: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create raw dir: %w", err)
	}
	names, err := reserve(dir, citySlug(city)+"_"+at.Format(StampLayout), ".json")
	if err != nil {
		return "", err
	}
	if err := replaceFile(names[0], body); err != nil {
		release(names)
		return "", err
	}
	return names[0], nil
}

func citySlug(city string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r), r == '-', r == '_':
			return '_'
		}
		return -1
	}, strings.TrimSpace(city))
	if s == "" {
		return "city"
	}
	return s
}

// RawStore is a domain.RawSink over a raw-data directory.
type RawStore struct{ dir string }

func NewRawStore(dir string) *RawStore { return &RawStore{dir: dir} }

func (s *RawStore) SaveRaw(city string, records []domain.RawHotel, at time.Time) (string, error) {
	return WriteRaw(s.dir, city, records, at)
}
