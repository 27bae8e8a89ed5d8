// Package qdrant is a VectorIndex backed by a Qdrant collection, spoken to
// over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"skardu_hotels/internal/adapters/observability"
	"skardu_hotels/internal/domain"
)

// point ids must be UUIDs or integers; hotel keys are mapped into this space
var pointNamespace = uuid.MustParse("0d9c7f6a-3e21-4b8e-8f55-6a1c2b7d9e40")

const upsertBatch = 128

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

type Index struct {
	url        string
	apiKey     string
	collection string
	hc         *http.Client
}

var _ domain.VectorIndex = (*Index)(nil)

func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	coll := cfg.Collection
	if coll == "" {
		coll = "hotels"
	}
	return &Index{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: coll,
		hc:         &http.Client{Timeout: timeout},
	}
}

func PointID(key string) string { return uuid.NewSHA1(pointNamespace, []byte(key)).String() }

// Init creates the collection with cosine distance. An existing collection
// is left as is.
func (x *Index) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{"size": dimension, "distance": "Cosine"},
	}
	status, err := x.do(ctx, http.MethodPut, "/collections/"+x.collection, "create_collection", body, nil)
	if err != nil && status != http.StatusConflict {
		return err
	}
	return nil
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload payload   `json:"payload"`
}

type payload struct {
	Key   string       `json:"key"`
	City  string       `json:"city"`
	Stars int          `json:"star_rating"`
	Hotel domain.Hotel `json:"hotel"`
}

func (x *Index) Upsert(ctx context.Context, hotels []domain.Hotel, vectors [][]float32) error {
	if len(hotels) != len(vectors) {
		return errors.New("hotels and vectors length mismatch")
	}
	for start := 0; start < len(hotels); start += upsertBatch {
		end := min(start+upsertBatch, len(hotels))
		pts := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			h := hotels[i]
			pts = append(pts, point{
				ID:     PointID(h.Key()),
				Vector: vectors[i],
				Payload: payload{
					Key: h.Key(), City: h.ContactInfo.City, Stars: h.StarRating, Hotel: h,
				},
			})
		}
		path := "/collections/" + x.collection + "/points?wait=true"
		if _, err := x.do(ctx, http.MethodPut, path, "upsert_points", map[string]any{"points": pts}, nil); err != nil {
			return err
		}
	}
	return nil
}

func (x *Index) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchHit, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{"vector": vector, "limit": topK, "with_payload": true}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	path := "/collections/" + x.collection + "/points/search"
	if _, err := x.do(ctx, http.MethodPost, path, "search_points", req, &resp); err != nil {
		return nil, err
	}
	hits := make([]domain.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, domain.SearchHit{Hotel: r.Payload.Hotel, Score: r.Score})
	}
	return hits, nil
}

// Clear drops the collection; a missing collection is not an error.
func (x *Index) Clear(ctx context.Context) error {
	status, err := x.do(ctx, http.MethodDelete, "/collections/"+x.collection, "delete_collection", nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	return nil
}

// do returns the response status alongside any error so callers can accept
// specific failures.
func (x *Index) do(ctx context.Context, method, path, endpoint string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("qdrant %s: encode: %w", endpoint, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, x.url+path, rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	start := time.Now()
	resp, err := x.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("qdrant", endpoint, 0, time.Since(start))
		return 0, fmt.Errorf("qdrant %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("qdrant", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("qdrant %s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("qdrant %s: decode: %w", endpoint, err)
		}
	}
	return resp.StatusCode, nil
}
