package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skardu_hotels/internal/domain"
)

type ProcessorOptions struct {
	RawDir string
	// Dedupe merges records that share a Hotel.Key into the first occurrence.
	Dedupe bool
	Clock  func() time.Time
}

// Processor runs the normalization pipeline over every raw file of a
// directory and writes one artifact pair per run.
type Processor struct {
	opts     ProcessorOptions
	writer   domain.ArtifactWriter
	reporter domain.Reporter
}

func NewProcessor(opts ProcessorOptions, w domain.ArtifactWriter, r domain.Reporter) *Processor {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Processor{opts: opts, writer: w, reporter: r}
}

// ProcessAll never fails: unreadable files and rejected records are reported
// and skipped, and the aggregate is returned even when writing the artifacts
// fails. ctx is checked between files only.
func (p *Processor) ProcessAll(ctx context.Context) []domain.Hotel {
	runAt := p.opts.Clock()

	files, err := discoverRawFiles(p.opts.RawDir)
	if err != nil {
		p.reporter.FileFailed(p.opts.RawDir, err)
	}

	all := []domain.Hotel{}
	failed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		fr := p.processFile(path, runAt)
		if !fr.OK() {
			failed++
			p.reporter.FileFailed(fr.Path, fr.Err)
			continue
		}
		accepted := 0
		for _, o := range fr.Outcomes {
			if !o.OK() {
				p.reporter.RecordRejected(fr.Path, *o.Rejected)
				continue
			}
			all = append(all, o.Hotel)
			accepted++
		}
		p.reporter.FileProcessed(fr.Path, accepted, len(fr.Outcomes)-accepted)
	}

	if p.opts.Dedupe {
		all = dedupeHotels(all)
	}

	if paths, err := p.writer.Write(all, runAt); err != nil {
		p.reporter.ArtifactFailed(err)
	} else {
		p.reporter.ArtifactsWritten(paths, len(all))
	}
	p.reporter.RunCompleted(len(all), len(files), failed)
	return all
}

func (p *Processor) processFile(path string, now time.Time) domain.FileResult {
	records, err := readRawFile(path)
	if err != nil {
		return domain.FileResult{Path: path, Err: err}
	}
	out := make([]domain.Outcome, 0, len(records))
	for _, rec := range records {
		out = append(out, NormalizeRecord(rec, now))
	}
	return domain.FileResult{Path: path, Outcomes: out}
}

// discoverRawFiles lists *.json regular files directly inside dir.
func discoverRawFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read raw dir: %w", err)
	}
	var files []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func readRawFile(path string) ([]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json: trailing data after top-level value")
	}
	records, ok := v.([]any)
	if !ok {
		return nil, domain.ErrNotArray
	}
	return records, nil
}

/********** dedup / merge **********/

func dedupeHotels(in []domain.Hotel) []domain.Hotel {
	out := make([]domain.Hotel, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, h := range in {
		k := h.Key()
		if i, ok := pos[k]; ok {
			out[i] = mergeHotel(out[i], h)
			continue
		}
		pos[k] = len(out)
		out = append(out, h)
	}
	return out
}

// mergeHotel fills gaps in dst from src; values already present in dst win.
func mergeHotel(dst, src domain.Hotel) domain.Hotel {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.Description, src.Description)
	fill(&dst.ContactInfo.Phone, src.ContactInfo.Phone)
	fill(&dst.ContactInfo.Email, src.ContactInfo.Email)
	fill(&dst.ContactInfo.Website, src.ContactInfo.Website)
	fill(&dst.ContactInfo.Address, src.ContactInfo.Address)
	fill(&dst.ContactInfo.Region, src.ContactInfo.Region)
	if dst.PriceRange.MinPrice == 0 && dst.PriceRange.MaxPrice == 0 {
		dst.PriceRange = src.PriceRange
	}

	names := make(map[string]struct{}, len(dst.Amenities))
	for _, a := range dst.Amenities {
		names[strings.ToLower(a.Name)] = struct{}{}
	}
	for _, a := range src.Amenities {
		if _, ok := names[strings.ToLower(a.Name)]; !ok {
			dst.Amenities = append(dst.Amenities, a)
			names[strings.ToLower(a.Name)] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(dst.Images))
	for _, img := range dst.Images {
		seen[img] = struct{}{}
	}
	for _, img := range src.Images {
		if _, ok := seen[img]; !ok {
			dst.Images = append(dst.Images, img)
			seen[img] = struct{}{}
		}
	}
	return dst
}
