package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"skardu_hotels/internal/domain"
)

type ScrapeOptions struct {
	Cities  []string
	Pages   int
	Workers int
}

// CityResult is the outcome of scraping one city. Path is empty when nothing
// was saved. Err and Path are both set when later pages failed after earlier
// ones were saved.
type CityResult struct {
	City    string
	Path    string
	Records int
	Err     error
}

type IngestResult struct {
	RunID  string
	Hotels int
	Stored bool
}

// IngestService drives one ingestion run: optional scraping into the raw
// directory, the batch processor, then the hotel store.
type IngestService struct {
	scraper domain.Scraper         // optional
	raw     domain.RawSink         // required with scraper
	proc    *Processor             // required
	repo    domain.HotelRepository // optional
	cache   domain.Cache           // optional
	clock   func() time.Time
}

func NewIngestService(sc domain.Scraper, raw domain.RawSink, p *Processor, r domain.HotelRepository, c domain.Cache) *IngestService {
	return &IngestService{scraper: sc, raw: raw, proc: p, repo: r, cache: c, clock: time.Now}
}

// ScrapeCities scrapes every city with at most Workers in flight and saves
// each non-empty result as its own raw file. Results keep the input order.
func (s *IngestService) ScrapeCities(ctx context.Context, opt ScrapeOptions) ([]CityResult, error) {
	if s.scraper == nil || s.raw == nil {
		return nil, errors.New("scraping not configured")
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = 2
	}
	pages := opt.Pages
	if pages <= 0 {
		pages = 1
	}

	out := make([]CityResult, len(opt.Cities))
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	for i, city := range opt.Cities {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(opt.Cities); j++ {
				out[j] = CityResult{City: opt.Cities[j], Err: err}
			}
			break
		}
		wg.Add(1)
		go func(i int, city string) {
			defer wg.Done()
			defer sem.Release(1)
			out[i] = s.scrapeCity(ctx, city, pages)
		}(i, city)
	}
	wg.Wait()
	return out, ctx.Err()
}

func (s *IngestService) scrapeCity(ctx context.Context, city string, pages int) CityResult {
	res := CityResult{City: city}
	recs, scrapeErr := s.scraper.ScrapeCity(ctx, city, pages)
	if scrapeErr != nil {
		res.Err = fmt.Errorf("scrape %s: %w", city, scrapeErr)
	}
	res.Records = len(recs)
	// pages fetched before a failure are still saved
	if len(recs) == 0 {
		return res
	}
	path, err := s.raw.SaveRaw(city, recs, s.clock())
	if err != nil {
		res.Err = errors.Join(res.Err, fmt.Errorf("save raw %s: %w", city, err))
		return res
	}
	res.Path = path
	return res
}

// Partial reports a city that saved records but stopped early on an error.
func (r CityResult) Partial() bool { return r.Err != nil && r.Path != "" }

// Run processes the raw directory and stores the aggregate. The processor
// itself never fails; only the store can.
func (s *IngestService) Run(ctx context.Context) (IngestResult, error) {
	res := IngestResult{RunID: uuid.NewString()}
	hotels := s.proc.ProcessAll(ctx)
	res.Hotels = len(hotels)

	if s.repo == nil || len(hotels) == 0 {
		return res, nil
	}
	if err := s.repo.UpsertHotels(ctx, hotels); err != nil {
		return res, fmt.Errorf("store hotels: %w", err)
	}
	res.Stored = true

	// evict cached hotel views so readers see this run
	if s.cache != nil {
		for _, h := range hotels {
			_ = s.cache.Del(ctx, hotelCacheKey(h.Key()))
		}
	}
	return res, nil
}
