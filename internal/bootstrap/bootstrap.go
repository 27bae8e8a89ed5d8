// Package bootstrap assembles adapters from configuration for the binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"skardu_hotels/internal/adapters/openai"
	redisad "skardu_hotels/internal/adapters/redis"
	"skardu_hotels/internal/adapters/tfidf"
	"skardu_hotels/internal/adapters/vectorindex/memory"
	"skardu_hotels/internal/adapters/vectorindex/qdrant"
	"skardu_hotels/internal/domain"
	"skardu_hotels/internal/shared"
	"skardu_hotels/internal/storage/artifacts"
	mysqlrepo "skardu_hotels/internal/storage/mysql"
)

// SearchBackend is the embedder, index and optional answerer chosen by
// EMBEDDER, VECTOR_INDEX and OPENAI_API_KEY.
type SearchBackend struct {
	Embedder domain.Embedder
	Index    domain.VectorIndex
	Answerer domain.Answerer // nil without an OpenAI key
}

func NewSearchBackend(cfg shared.Config) (SearchBackend, error) {
	var b SearchBackend

	var oc *openai.Client
	if cfg.OpenAIKey != "" {
		c, err := openai.New(openai.Config{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			ChatModel:      cfg.ChatModel,
		})
		if err != nil {
			return b, err
		}
		oc = c
		b.Answerer = c.Answerer()
	}

	switch cfg.Embedder {
	case "tfidf", "":
		b.Embedder = tfidf.NewEmbedder()
	case "openai":
		if oc == nil {
			return b, fmt.Errorf("EMBEDDER=openai requires OPENAI_API_KEY")
		}
		b.Embedder = oc.Embedder()
	default:
		return b, fmt.Errorf("unknown embedder %q", cfg.Embedder)
	}

	switch cfg.VectorIndex {
	case "memory", "":
		b.Index = memory.New()
	case "qdrant":
		b.Index = qdrant.New(qdrant.Config{URL: cfg.QdrantURL, APIKey: cfg.QdrantAPIKey, Collection: cfg.QdrantCollection})
	default:
		return b, fmt.Errorf("unknown vector index %q", cfg.VectorIndex)
	}
	return b, nil
}

// OpenMySQL opens and pings the database.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// HotelSource is where the api and query binaries read canonical hotels
// from, and a closer for whatever it opened.
type HotelSource struct {
	Repo   domain.HotelRepository
	Hotels []domain.Hotel
	Origin string
	Close  func()
}

// LoadHotels reads every hotel from MySQL when MYSQL_DSN is set, otherwise
// from the newest artifact in PROCESSED_DATA_DIR.
func LoadHotels(ctx context.Context, cfg shared.Config) (HotelSource, error) {
	if cfg.MySQLDSN != "" {
		db, err := OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return HotelSource{}, err
		}
		repo := mysqlrepo.New(db)
		hs, err := allHotels(ctx, repo)
		if err != nil {
			_ = db.Close()
			return HotelSource{}, err
		}
		return HotelSource{Repo: repo, Hotels: hs, Origin: "mysql", Close: func() { _ = db.Close() }}, nil
	}

	hs, path, err := artifacts.LoadLatest(cfg.ProcessedDataDir)
	if err != nil {
		return HotelSource{}, fmt.Errorf("load artifact from %s: %w", cfg.ProcessedDataDir, err)
	}
	return HotelSource{Repo: artifacts.NewCatalog(hs), Hotels: hs, Origin: path, Close: func() {}}, nil
}

// allHotels reads the whole table in one page.
func allHotels(ctx context.Context, repo *mysqlrepo.Repo) ([]domain.Hotel, error) {
	return repo.ListHotels(ctx, domain.HotelsQuery{Limit: 100000})
}

// Cache returns the Redis cache when REDIS_ADDR is set and reachable.
// Unreachable Redis is logged and treated as absent.
func Cache(ctx context.Context, cfg shared.Config) (*redisad.Cache, bool) {
	if cfg.RedisAddr == "" {
		return nil, false
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, caching disabled")
		_ = c.Close()
		return nil, false
	}
	return c, true
}
