package artifacts

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"skardu_hotels/internal/domain"
)

const processedPrefix = "processed_hotels_"

// CSVHeader is the flattened column layout of the tabular artifact.
var CSVHeader = []string{
	"id", "name", "description", "star_rating",
	"contact_info.phone", "contact_info.email", "contact_info.website",
	"contact_info.address", "contact_info.city", "contact_info.region",
	"price_range.min_price", "price_range.max_price",
	"price_range.currency", "price_range.price_per_night",
	"amenities", "images", "source", "scraped_at",
}

// Writer writes the artifact pair of a run into a processed-data directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer { return &Writer{dir: dir} }

// Write never overwrites an existing artifact: a run that lands on an
// already used timestamp gets a _N suffix on both files.
func (w *Writer) Write(hotels []domain.Hotel, runAt time.Time) (domain.ArtifactPaths, error) {
	if hotels == nil {
		hotels = []domain.Hotel{}
	}
	jsonBody, err := encodeJSON(hotels)
	if err != nil {
		return domain.ArtifactPaths{}, fmt.Errorf("encode json artifact: %w", err)
	}
	csvBody, err := encodeCSV(hotels)
	if err != nil {
		return domain.ArtifactPaths{}, fmt.Errorf("encode csv artifact: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return domain.ArtifactPaths{}, fmt.Errorf("create processed dir: %w", err)
	}
	names, err := reserve(w.dir, processedPrefix+runAt.Format(StampLayout), ".json", ".csv")
	if err != nil {
		return domain.ArtifactPaths{}, err
	}
	paths := domain.ArtifactPaths{JSON: names[0], CSV: names[1]}

	if err := replaceFile(paths.JSON, jsonBody); err != nil {
		release(names)
		return domain.ArtifactPaths{}, err
	}
	if err := replaceFile(paths.CSV, csvBody); err != nil {
		release(names)
		return domain.ArtifactPaths{}, err
	}
	return paths, nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCSV(hotels []domain.Hotel) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(CSVHeader); err != nil {
		return nil, err
	}
	for _, h := range hotels {
		row, err := csvRow(h)
		if err != nil {
			return nil, fmt.Errorf("hotel %q: %w", h.Name, err)
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvRow(h domain.Hotel) ([]string, error) {
	amen, err := json.Marshal(orEmpty(h.Amenities))
	if err != nil {
		return nil, err
	}
	imgs, err := json.Marshal(orEmpty(h.Images))
	if err != nil {
		return nil, err
	}
	ci, pr := h.ContactInfo, h.PriceRange
	return []string{
		h.ID,
		h.Name,
		h.Description,
		strconv.Itoa(h.StarRating),
		ci.Phone, ci.Email, ci.Website, ci.Address, ci.City, ci.Region,
		formatPrice(pr.MinPrice),
		formatPrice(pr.MaxPrice),
		pr.Currency,
		strconv.FormatBool(pr.PricePerNight),
		string(amen),
		string(imgs),
		h.Source,
		h.ScrapedAt,
	}, nil
}

func formatPrice(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
