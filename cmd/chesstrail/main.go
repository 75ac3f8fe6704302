package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/openinglab/chesstrail/internal/archcache"
	"github.com/openinglab/chesstrail/internal/boardimg"
	"github.com/openinglab/chesstrail/internal/chesscom"
	appcfg "github.com/openinglab/chesstrail/internal/config"
	"github.com/openinglab/chesstrail/internal/httpapi"
	"github.com/openinglab/chesstrail/internal/ingest"
	"github.com/openinglab/chesstrail/internal/obslog"
	"github.com/openinglab/chesstrail/internal/opening"
	"github.com/openinglab/chesstrail/internal/query"
	"github.com/openinglab/chesstrail/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Fatalf("opening catalog error: %v", err)
	}

	repo, err := newRepository(cfg)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	var cache *archcache.Cache
	if cfg.RedisURL != "" {
		rdb, err := archcache.Open(cfg.RedisURL)
		if err != nil {
			logger.Warn("archive cache disabled", zap.Error(err))
		} else {
			cache = archcache.New(rdb, cfg.ArchiveCacheTTL)
			logger.Info("archive cache enabled")
		}
	}

	fetcher := chesscom.NewClient(cfg.ChesscomBaseURL,
		chesscom.WithTimeout(cfg.FetchTimeout),
		chesscom.WithUserAgent(cfg.ChesscomUserAgent),
		chesscom.WithLogger(logger),
	)

	ingester, err := ingest.NewService(fetcher, repo, catalog, cache, cfg.ECOBookMaxPly, logger)
	if err != nil {
		log.Fatalf("ingest service error: %v", err)
	}
	queries, err := query.NewService(repo, catalog, logger)
	if err != nil {
		log.Fatalf("query service error: %v", err)
	}
	api, err := httpapi.NewServer(queries, ingester, boardimg.NewRenderer(), logger)
	if err != nil {
		log.Fatalf("http server error: %v", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr), zap.String("backend", cfg.StorageBackend))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = repo.Close()
	_ = logger.Sync()
}

func loadCatalog(cfg *appcfg.AppConfig) (*opening.Catalog, error) {
	if cfg.OpeningCatalogPath != "" {
		return opening.LoadFile(cfg.OpeningCatalogPath)
	}
	return opening.Default()
}

func newRepository(cfg *appcfg.AppConfig) (storage.Repository, error) {
	if cfg.StorageBackend == appcfg.BackendPostgres {
		return storage.NewPostgres(cfg.DatabaseURL)
	}
	return storage.NewMemory(), nil
}
