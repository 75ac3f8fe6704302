package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type AppConfig struct {
	HTTPAddr string

	StorageBackend string
	DatabaseURL    string

	RedisURL string

	ChesscomBaseURL   string
	ChesscomUserAgent string
	FetchTimeout      time.Duration

	ArchiveCacheTTL time.Duration
	ECOBookMaxPly   int

	OpeningCatalogPath string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:          ":8080",
		StorageBackend:    BackendMemory,
		ChesscomBaseURL:   "https://api.chess.com",
		ChesscomUserAgent: "chesstrail/0.1 (+https://github.com/openinglab/chesstrail)",
		FetchTimeout:      20 * time.Second,
		ArchiveCacheTTL:   24 * time.Hour,
		ECOBookMaxPly:     24,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("STORAGE_BACKEND")); v != "" {
		cfg.StorageBackend = strings.ToLower(v)
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	if v := strings.TrimSpace(os.Getenv("CHESSCOM_BASE_URL")); v != "" {
		cfg.ChesscomBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("CHESSCOM_USER_AGENT")); v != "" {
		cfg.ChesscomUserAgent = v
	}
	if v := strings.TrimSpace(os.Getenv("FETCH_TIMEOUT")); v != "" { // seconds
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeout = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARCHIVE_CACHE_TTL")); v != "" { // seconds
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ArchiveCacheTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("ECO_BOOK_MAX_PLY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ECOBookMaxPly = n
		}
	}
	cfg.OpeningCatalogPath = strings.TrimSpace(os.Getenv("OPENING_CATALOG_PATH"))

	switch cfg.StorageBackend {
	case BackendMemory, BackendPostgres:
	default:
		return nil, errors.New("STORAGE_BACKEND must be one of: memory, postgres")
	}
	if cfg.StorageBackend == BackendPostgres && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for the postgres backend")
	}

	return cfg, nil
}
