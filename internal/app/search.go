package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"skardu_hotels/internal/domain"
)

const (
	defaultTopK = 5
	maxTopK     = 50
	embedBatch  = 32
	// filtered queries over-fetch so that filtering still leaves K hits
	filterOverfetch = 4
)

type SearchService struct {
	emb      domain.Embedder
	idx      domain.VectorIndex
	cache    domain.Cache    // optional
	answerer domain.Answerer // optional
	cacheTTL time.Duration
	defaultK int

	mu          sync.RWMutex
	fingerprint string // identifies the indexed corpus in cache keys
}

func NewSearchService(e domain.Embedder, idx domain.VectorIndex, c domain.Cache, a domain.Answerer, ttl time.Duration) *SearchService {
	return &SearchService{emb: e, idx: idx, cache: c, answerer: a, cacheTTL: ttl, defaultK: defaultTopK}
}

// SetDefaultK changes the number of hits returned when a query leaves K
// unset. Values outside [1, 50] are ignored.
func (s *SearchService) SetDefaultK(k int) {
	if k > 0 && k <= maxTopK {
		s.defaultK = k
	}
}

// Index embeds every hotel and replaces the contents of the vector index.
func (s *SearchService) Index(ctx context.Context, hotels []domain.Hotel) error {
	if len(hotels) == 0 {
		return errors.New("no hotels to index")
	}
	docs := make([]string, len(hotels))
	fp := sha1.New()
	for i, h := range hotels {
		docs[i] = HotelDocument(h)
		fp.Write([]byte(h.Key()))
		fp.Write([]byte(docs[i]))
	}

	if err := s.emb.Prepare(ctx, docs); err != nil {
		return fmt.Errorf("prepare %s embedder: %w", s.emb.Name(), err)
	}
	vecs := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatch {
		end := min(start+embedBatch, len(docs))
		v, err := s.emb.Embed(ctx, docs[start:end])
		if err != nil {
			return fmt.Errorf("embed hotels %d..%d: %w", start, end, err)
		}
		if len(v) != end-start {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(v), end-start)
		}
		vecs = append(vecs, v...)
	}

	if err := s.idx.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if err := s.idx.Init(ctx, len(vecs[0])); err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	if err := s.idx.Upsert(ctx, hotels, vecs); err != nil {
		return fmt.Errorf("upsert index: %w", err)
	}

	s.mu.Lock()
	s.fingerprint = hex.EncodeToString(fp.Sum(nil))[:12]
	s.mu.Unlock()
	return nil
}

func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchHit, error) {
	q = normalizeQuery(q, s.defaultK)
	if q.Text == "" {
		return nil, domain.ErrEmptyQuery
	}

	key := s.cacheKey(q)
	if s.cache != nil {
		var cached []domain.SearchHit
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	vecs, err := s.emb.Embed(ctx, []string{q.Text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}

	fetch := q.K
	if q.Filtered() {
		fetch = q.K * filterOverfetch
	}
	raw, err := s.idx.Search(ctx, vecs[0], fetch)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	hits := make([]domain.SearchHit, 0, q.K)
	for _, h := range raw {
		if !matches(h.Hotel, q) {
			continue
		}
		hits = append(hits, h)
		if len(hits) == q.K {
			break
		}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, hits, int(s.cacheTTL.Seconds()))
	}
	return hits, nil
}

// Answer retrieves hotels for q and asks the answerer to phrase a reply.
func (s *SearchService) Answer(ctx context.Context, q domain.SearchQuery) (domain.Answer, error) {
	if s.answerer == nil {
		return domain.Answer{}, domain.ErrNoAnswerer
	}
	hits, err := s.Search(ctx, q)
	if err != nil {
		return domain.Answer{}, err
	}
	text, err := s.answerer.Answer(ctx, strings.TrimSpace(q.Text), hits)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	return domain.Answer{Text: text, Hits: hits}, nil
}

func normalizeQuery(q domain.SearchQuery, defK int) domain.SearchQuery {
	q.Text = strings.TrimSpace(q.Text)
	q.City = strings.TrimSpace(q.City)
	switch {
	case q.K <= 0:
		q.K = defK
	case q.K > maxTopK:
		q.K = maxTopK
	}
	return q
}

// matches applies the structured filters. A hotel without a known price
// never satisfies a price ceiling.
func matches(h domain.Hotel, q domain.SearchQuery) bool {
	if q.City != "" && !strings.EqualFold(h.ContactInfo.City, q.City) {
		return false
	}
	if q.MinStars > 0 && h.StarRating < q.MinStars {
		return false
	}
	if q.MaxPrice > 0 && (h.PriceRange.MinPrice <= 0 || h.PriceRange.MinPrice > q.MaxPrice) {
		return false
	}
	return true
}

func (s *SearchService) cacheKey(q domain.SearchQuery) string {
	s.mu.RLock()
	fp := s.fingerprint
	s.mu.RUnlock()
	b, _ := json.Marshal(q)
	sum := sha1.Sum(b)
	return "search:" + fp + ":" + hex.EncodeToString(sum[:])
}

// HotelDocument is the text a hotel is embedded as.
func HotelDocument(h domain.Hotel) string {
	var b strings.Builder
	line := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			b.WriteString(label + ": " + v + "\n")
		}
	}
	line("Name", h.Name)
	line("City", h.ContactInfo.City)
	line("Region", h.ContactInfo.Region)
	line("Address", h.ContactInfo.Address)
	line("Rating", strconv.Itoa(h.StarRating)+" stars")
	if h.PriceRange.MinPrice > 0 {
		price := fmt.Sprintf("%.0f-%.0f %s", h.PriceRange.MinPrice, h.PriceRange.MaxPrice, h.PriceRange.Currency)
		if h.PriceRange.PricePerNight {
			price += " per night"
		}
		line("Price", price)
	}
	var names []string
	for _, a := range h.Amenities {
		if a.IsAvailable && a.Name != "" {
			names = append(names, a.Name)
		}
	}
	line("Amenities", strings.Join(names, ", "))
	line("Description", h.Description)
	return strings.TrimSuffix(b.String(), "\n")
}
