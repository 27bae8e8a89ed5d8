// Package memory is a brute-force in-process VectorIndex.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"skardu_hotels/internal/domain"
)

// Index scores every stored vector by cosine similarity.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	norms     []float64
	hotels    []domain.Hotel
	byKey     map[string]int
}

var _ domain.VectorIndex = (*Index)(nil)

func New() *Index { return &Index{byKey: map[string]int{}} }

func (x *Index) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.dimension = dimension
	x.reset()
	return nil
}

// Upsert replaces hotels already present under the same key.
func (x *Index) Upsert(_ context.Context, hotels []domain.Hotel, vectors [][]float32) error {
	if len(hotels) != len(vectors) {
		return errors.New("hotels and vectors length mismatch")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range vectors {
		if len(v) != x.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, h := range hotels {
		k := h.Key()
		if j, ok := x.byKey[k]; ok {
			x.hotels[j], x.vectors[j], x.norms[j] = h, vectors[i], norm(vectors[i])
			continue
		}
		x.byKey[k] = len(x.hotels)
		x.hotels = append(x.hotels, h)
		x.vectors = append(x.vectors, vectors[i])
		x.norms = append(x.norms, norm(vectors[i]))
	}
	return nil
}

func (x *Index) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if len(vector) != x.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	if topK <= 0 {
		topK = 5
	}
	qn := norm(vector)
	idxs := make([]int, len(x.vectors))
	scores := make([]float64, len(x.vectors))
	for i, v := range x.vectors {
		idxs[i] = i
		if qn > 0 && x.norms[i] > 0 {
			scores[i] = dot(v, vector) / (qn * x.norms[i])
		}
	}
	// stable, so equal scores keep insertion order
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })

	topK = min(topK, len(idxs))
	hits := make([]domain.SearchHit, 0, topK)
	for _, j := range idxs[:topK] {
		hits = append(hits, domain.SearchHit{Hotel: x.hotels[j], Score: scores[j]})
	}
	return hits, nil
}

func (x *Index) Clear(context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.reset()
	return nil
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.hotels)
}

func (x *Index) reset() {
	x.vectors, x.norms, x.hotels = nil, nil, nil
	x.byKey = map[string]int{}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(v []float32) float64 { return math.Sqrt(dot(v, v)) }
