package memory_test

import (
	"context"
	"testing"

	"skardu_hotels/internal/adapters/vectorindex/memory"
	"skardu_hotels/internal/domain"
)

func hotel(id string) domain.Hotel { return domain.Hotel{ID: id, Name: "Hotel " + id} }

func TestIndex_SearchOrdersByCosine(t *testing.T) {
	ctx := context.Background()
	x := memory.New()
	if err := x.Init(ctx, 2); err != nil {
		t.Fatal(err)
	}
	err := x.Upsert(ctx,
		[]domain.Hotel{hotel("a"), hotel("b"), hotel("c"), hotel("zero")},
		[][]float32{{1, 0}, {0, 1}, {3, 3}, {0, 0}},
	)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := x.Search(ctx, []float32{2, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 || hits[0].Hotel.ID != "a" || hits[1].Hotel.ID != "c" || hits[2].Hotel.ID != "b" {
		t.Fatalf("unexpected order: %+v", hits)
	}
	if hits[0].Score < 0.999 || hits[2].Score != 0 {
		t.Fatalf("unexpected scores: %v %v", hits[0].Score, hits[2].Score)
	}

	all, _ := x.Search(ctx, []float32{1, 1}, 10)
	if len(all) != 4 {
		t.Fatalf("topK larger than the index returns everything, got %d", len(all))
	}
}

func TestIndex_UpsertReplacesByKey(t *testing.T) {
	ctx := context.Background()
	x := memory.New()
	_ = x.Init(ctx, 2)
	_ = x.Upsert(ctx, []domain.Hotel{hotel("a")}, [][]float32{{1, 0}})
	updated := hotel("a")
	updated.Name = "Renamed"
	_ = x.Upsert(ctx, []domain.Hotel{updated}, [][]float32{{0, 1}})

	if x.Len() != 1 {
		t.Fatalf("same key should replace, got %d entries", x.Len())
	}
	hits, _ := x.Search(ctx, []float32{0, 1}, 1)
	if hits[0].Hotel.Name != "Renamed" || hits[0].Score < 0.999 {
		t.Fatalf("replacement not visible: %+v", hits[0])
	}
}

func TestIndex_Validation(t *testing.T) {
	ctx := context.Background()
	x := memory.New()
	if err := x.Init(ctx, 0); err == nil {
		t.Fatalf("zero dimension must fail")
	}
	_ = x.Init(ctx, 3)
	if err := x.Upsert(ctx, []domain.Hotel{hotel("a")}, nil); err == nil {
		t.Fatalf("length mismatch must fail")
	}
	if err := x.Upsert(ctx, []domain.Hotel{hotel("a")}, [][]float32{{1, 2}}); err == nil {
		t.Fatalf("dimension mismatch must fail")
	}
	if _, err := x.Search(ctx, []float32{1}, 1); err == nil {
		t.Fatalf("query dimension mismatch must fail")
	}
}

func TestIndex_Clear(t *testing.T) {
	ctx := context.Background()
	x := memory.New()
	_ = x.Init(ctx, 1)
	_ = x.Upsert(ctx, []domain.Hotel{hotel("a")}, [][]float32{{1}})
	_ = x.Clear(ctx)
	hits, err := x.Search(ctx, []float32{1}, 5)
	if err != nil || len(hits) != 0 {
		t.Fatalf("cleared index should be empty: %v %v", hits, err)
	}
}
