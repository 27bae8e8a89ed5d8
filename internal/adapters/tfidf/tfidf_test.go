package tfidf_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"skardu_hotels/internal/adapters/tfidf"
)

var docs = []string{
	"Name: Shangrila Resort\nCity: Skardu\nDescription: lakeside chalets",
	"Name: Hunza Serena\nCity: Hunza\nDescription: mountain views and heated rooms",
	"Name: Concordia Motel\nCity: Skardu\nDescription: budget rooms near the bazaar",
}

func cosine(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i] * b[i])
	}
	return s
}

func TestEmbedder_NotPrepared(t *testing.T) {
	if _, err := tfidf.NewEmbedder().Embed(context.Background(), []string{"x"}); !errors.Is(err, tfidf.ErrNotPrepared) {
		t.Fatalf("want ErrNotPrepared, got %v", err)
	}
}

func TestEmbedder_PrepareAndEmbed(t *testing.T) {
	e := tfidf.NewEmbedder()
	ctx := context.Background()
	if err := e.Prepare(ctx, docs); err != nil {
		t.Fatal(err)
	}
	if e.Dimension() == 0 {
		t.Fatalf("empty vocabulary")
	}
	if err := e.Prepare(ctx, nil); err == nil {
		t.Fatalf("empty corpus must fail")
	}

	vecs, err := e.Embed(ctx, append(docs, "lakeside chalets in skardu", "zzz unknown"))
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 5 || len(vecs[0]) != e.Dimension() {
		t.Fatalf("shape: %d x %d", len(vecs), len(vecs[0]))
	}

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v * v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("vectors should be unit length, got %v", norm)
	}

	q := vecs[3]
	if cosine(q, vecs[0]) <= cosine(q, vecs[1]) || cosine(q, vecs[0]) <= cosine(q, vecs[2]) {
		t.Fatalf("query should be closest to the lakeside document")
	}
	for _, v := range vecs[4] {
		if v != 0 {
			t.Fatalf("unknown terms should give the zero vector")
		}
	}
}

func TestEmbedder_LabelsAreStopwords(t *testing.T) {
	e := tfidf.NewEmbedder()
	ctx := context.Background()
	_ = e.Prepare(ctx, docs)
	vecs, _ := e.Embed(ctx, []string{"Name: City: Description:"})
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatalf("document labels must not carry weight")
		}
	}
}
