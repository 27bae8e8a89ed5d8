package domain

import (
	"context"
	"time"
)

// Reporter receives pipeline diagnostics. It replaces ambient logging in the
// batch processor so callers (and tests) decide where diagnostics go.
type Reporter interface {
	FileProcessed(path string, accepted, rejected int)
	FileFailed(path string, err error)
	RecordRejected(path string, rej Rejection)
	ArtifactsWritten(paths ArtifactPaths, count int)
	ArtifactFailed(err error)
	RunCompleted(total, files, failedFiles int)
}

type ArtifactPaths struct {
	JSON string
	CSV  string
}

// ArtifactWriter persists the consolidated result of one run.
type ArtifactWriter interface {
	Write(hotels []Hotel, runAt time.Time) (ArtifactPaths, error)
}

type HotelRepository interface {
	// Write paths
	UpsertHotels(ctx context.Context, hs []Hotel) error

	// Read paths
	GetHotel(ctx context.Context, key string) (Hotel, error)
	ListHotels(ctx context.Context, q HotelsQuery) ([]Hotel, error)
}

type HotelsQuery struct {
	City  string
	Limit int
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Embedder turns text into vectors. Prepare is called once with the whole
// corpus before the first Embed; remote implementations may ignore it.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex stores hotel vectors and answers nearest-neighbour queries.
type VectorIndex interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, hotels []Hotel, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error)
	Clear(ctx context.Context) error
}

// Answerer writes a conversational answer from retrieved hotels.
type Answerer interface {
	Answer(ctx context.Context, question string, hits []SearchHit) (string, error)
}

// Scraper collects raw hotel records for one city.
type Scraper interface {
	ScrapeCity(ctx context.Context, city string, pages int) ([]RawHotel, error)
}

// RawSink stores scraped records where the batch processor will find them.
type RawSink interface {
	SaveRaw(city string, records []RawHotel, at time.Time) (string, error)
}
