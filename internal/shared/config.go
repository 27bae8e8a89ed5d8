package shared

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultCities is scraped when no CITIES_FILE is configured.
var DefaultCities = []string{
	"Islamabad", "Karachi", "Lahore", "Peshawar",
	"Quetta", "Skardu", "Gilgit", "Murree",
}

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	RawDataDir       string
	ProcessedDataDir string
	Dedupe           bool

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	ScrapeEnabled  bool
	BookingBaseURL string
	ScrapePages    int
	ScrapeRPS      int
	ScrapeWorkers  int
	CitiesFile     string

	Embedder       string
	OpenAIKey      string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string

	VectorIndex      string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	SearchTopK int
	CacheTTL   time.Duration
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over .env.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env could not be parsed")
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		RawDataDir:       env("RAW_DATA_DIR", "data/raw"),
		ProcessedDataDir: env("PROCESSED_DATA_DIR", "data/processed"),
		Dedupe:           abool("PIPELINE_DEDUPE", false),

		MySQLDSN:  env("MYSQL_DSN", ""),
		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),

		ScrapeEnabled:  abool("SCRAPE_ENABLED", false),
		BookingBaseURL: env("BOOKING_BASE_URL", "https://www.booking.com"),
		ScrapePages:    atoi("SCRAPE_PAGES", 1),
		ScrapeRPS:      atoi("SCRAPE_RPS", 1),
		ScrapeWorkers:  atoi("SCRAPE_WORKERS", 2),
		CitiesFile:     env("CITIES_FILE", ""),

		Embedder:       strings.ToLower(env("EMBEDDER", "tfidf")),
		OpenAIKey:      env("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  env("OPENAI_BASE_URL", ""),
		EmbeddingModel: env("EMBEDDING_MODEL", ""),
		ChatModel:      env("CHAT_MODEL", ""),

		VectorIndex:      strings.ToLower(env("VECTOR_INDEX", "memory")),
		QdrantURL:        env("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     env("QDRANT_API_KEY", ""),
		QdrantCollection: env("QDRANT_COLLECTION", "hotels"),

		SearchTopK: atoi("SEARCH_TOP_K", 5),
		CacheTTL:   time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.Embedder == "openai" && c.OpenAIKey == "" {
		log.Warn().Msg("EMBEDDER=openai but OPENAI_API_KEY is empty")
	}
	return c
}

type citiesFile struct {
	Cities []string `yaml:"cities"`
}

// LoadCities reads a YAML city list, either a bare sequence or a mapping with
// a "cities" key. An empty path yields DefaultCities.
func LoadCities(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), DefaultCities...), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var raw []string
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err = node.Decode(&raw)
	} else {
		var cf citiesFile
		err = node.Decode(&cf)
		raw = cf.Cities
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	seen := map[string]bool{}
	var out []string
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s lists no cities", path)
	}
	return out, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		log.Warn().Str("var", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func abool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		log.Warn().Str("var", k).Str("value", v).Msg("not a boolean, using default")
	}
	return def
}
