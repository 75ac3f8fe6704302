package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/openinglab/chesstrail/internal/boardimg"
	"github.com/openinglab/chesstrail/internal/ingest"
	"github.com/openinglab/chesstrail/internal/query"
)

const serviceName = "chesstrail"

// Server owns the HTTP surface: fetch/ingest endpoints, the agent query
// endpoints, the board render, and /metrics.
type Server struct {
	queries  *query.Service
	ingester *ingest.Service
	renderer boardimg.Renderer
	logger   *zap.Logger
}

func NewServer(queries *query.Service, ingester *ingest.Service, renderer boardimg.Renderer, logger *zap.Logger) (*Server, error) {
	if queries == nil {
		return nil, fmt.Errorf("query service is required")
	}
	if ingester == nil {
		return nil, fmt.Errorf("ingest service is required")
	}
	if renderer == nil {
		renderer = boardimg.NewRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{queries: queries, ingester: ingester, renderer: renderer, logger: logger}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	r.Get("/", s.handleMeta)
	r.Get("/games/{username}/{year}/{month}", s.handleFetchMonth)
	r.Post("/ingest/{username}/{year}/{month}", s.handleIngestMonth)
	r.Post("/ingest/{username}", s.handleIngestArchive)

	r.Route("/agent/games", func(r chi.Router) {
		r.Get("/", s.handleAgentGames)
		r.Get("/wins", s.handleAgentWins)
		r.Get("/losses", s.handleAgentLosses)
		r.Get("/draws", s.handleAgentDraws)
		r.Get("/{id}/board.png", s.handleBoardPNG)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
