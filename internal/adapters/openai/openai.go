// Package openai adapts an OpenAI-compatible API to the Embedder and
// Answerer ports.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"skardu_hotels/internal/adapters/observability"
	"skardu_hotels/internal/domain"
)

const (
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultChatModel      = "gpt-4o-mini"
)

type Config struct {
	APIKey         string
	BaseURL        string // empty means api.openai.com
	EmbeddingModel string
	ChatModel      string
	RPS            int
}

// Client holds one API client and limiter shared by the embedder and the
// answerer.
type Client struct {
	api   *openai.Client
	rl    *rate.Limiter
	embed string
	chat  string
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 3
	}
	c := &Client{
		api:   openai.NewClientWithConfig(oc),
		rl:    rate.NewLimiter(rate.Limit(rps), rps+2),
		embed: cfg.EmbeddingModel,
		chat:  cfg.ChatModel,
	}
	if c.embed == "" {
		c.embed = DefaultEmbeddingModel
	}
	if c.chat == "" {
		c.chat = DefaultChatModel
	}
	return c, nil
}

func (c *Client) Embedder() *Embedder { return &Embedder{c: c} }
func (c *Client) Answerer() *Answerer { return &Answerer{c: c} }

// statusOf extracts the HTTP status for metrics; 0 when unknown.
func statusOf(err error) int {
	if err == nil {
		return 200
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

/********** embeddings **********/

type Embedder struct {
	c   *Client
	dim int
}

var _ domain.Embedder = (*Embedder)(nil)

func (e *Embedder) Name() string { return "openai:" + e.c.embed }

// Prepare is a no-op: the remote model has a fixed vocabulary.
func (e *Embedder) Prepare(context.Context, []string) error { return nil }

// Dimension is known after the first successful Embed.
func (e *Embedder) Dimension() int { return e.dim }

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := e.c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.c.embed),
	})
	observability.ObserveExternal("openai", "embeddings", statusOf(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	e.dim = len(out[0])
	return out, nil
}

/********** answers **********/

const systemPrompt = "You are a hotel assistant for northern Pakistan. Answer only from the hotels listed in the context. " +
	"If none of them fit, say so. Mention hotel names, star ratings and prices when relevant."

type Answerer struct{ c *Client }

var _ domain.Answerer = (*Answerer)(nil)

func (a *Answerer) Answer(ctx context.Context, question string, hits []domain.SearchHit) (string, error) {
	if err := a.c.rl.Wait(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	resp, err := a.c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.c.chat,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(question, hits)},
		},
		Temperature: 0.2,
	})
	observability.ObserveExternal("openai", "chat", statusOf(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt lists the retrieved hotels, best match first, then the question.
func BuildPrompt(question string, hits []domain.SearchHit) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	if len(hits) == 0 {
		b.WriteString("(no hotels matched)\n")
	}
	for i, h := range hits {
		ht := h.Hotel
		fmt.Fprintf(&b, "%d. %s (%s), %d stars", i+1, ht.Name, ht.ContactInfo.City, ht.StarRating)
		if ht.PriceRange.MinPrice > 0 {
			fmt.Fprintf(&b, ", %.0f-%.0f %s", ht.PriceRange.MinPrice, ht.PriceRange.MaxPrice, ht.PriceRange.Currency)
		}
		if ht.Description != "" {
			b.WriteString(": " + ht.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: " + question)
	return b.String()
}
