// Package tfidf is an offline Embedder: a TF-IDF vectorizer whose
// vocabulary is built from the indexed hotel documents.
package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"skardu_hotels/internal/domain"
)

var ErrNotPrepared = errors.New("tfidf embedder not prepared")

type Embedder struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	tokens     *regexp.Regexp
	stopwords  map[string]struct{}
}

var _ domain.Embedder = (*Embedder)(nil)

func NewEmbedder() *Embedder {
	return &Embedder{
		vocabulary: map[string]int{},
		tokens:     regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`),
		stopwords:  defaultStopwords(),
	}
}

func (e *Embedder) Name() string { return "tfidf" }

// Prepare replaces the vocabulary and IDF weights with ones built from
// corpus. Terms are ordered alphabetically so dimensions are stable.
func (e *Embedder) Prepare(_ context.Context, corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	df := map[string]int{}
	for _, text := range corpus {
		seen := map[string]struct{}{}
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("no tokens found in corpus")
	}
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, t := range terms {
		vocab[t] = i
		// smoothed IDF
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	e.mu.Lock()
	e.vocabulary, e.idf = vocab, idf
	e.mu.Unlock()
	return nil
}

func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.idf)
}

// Embed returns L2-normalized vectors. Text without known terms maps to the
// zero vector.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.idf) == 0 {
		return nil, ErrNotPrepared
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float32 {
	vec := make([]float32, len(e.idf))
	tf := map[int]int{}
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	w := make(map[int]float64, len(tf))
	norm := 0.0
	for idx, count := range tf {
		v := float64(count) / float64(total) * e.idf[idx]
		w[idx] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for idx, v := range w {
		vec[idx] = float32(v / norm)
	}
	return vec
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokens.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "than", "so", "such", "into", "about", "between", "near",
		"very", "can", "will", "just", "should", "now", "i", "me", "my", "we", "our", "you", "your",
		"want", "looking", "find", "show", "any", "some", "please",
		// labels of the hotel document layout
		"name", "city", "region", "address", "rating", "price", "amenities", "description", "per", "night",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
