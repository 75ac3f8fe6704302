package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/openinglab/chesstrail/internal/chesscom"
	"github.com/openinglab/chesstrail/pkg/gamedto"
)

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gamedto.Meta{OK: true, Service: serviceName})
}

// parseYearMonth validates the {year}/{month} path segments. The archive
// API has no data before 2007.
func parseYearMonth(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2007 {
		writeAPIError(w, http.StatusBadRequest, "invalid_year", "year must be an integer >= 2007")
		return 0, 0, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeAPIError(w, http.StatusBadRequest, "invalid_month", "month must be an integer between 1 and 12")
		return 0, 0, false
	}
	return year, month, true
}

func (s *Server) handleFetchMonth(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	games, err := s.ingester.FetchMonth(r.Context(), username, year, month)
	if err != nil {
		s.logger.Error("fetch month failed",
			zap.String("username", username), zap.Int("year", year), zap.Int("month", month), zap.Error(err))
		writeAPIError(w, http.StatusBadGateway, "upstream_fetch_failed", "Upstream fetch failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ToDTOFetchedGames(games))
}

func (s *Server) handleIngestMonth(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	report, err := s.ingester.IngestMonth(r.Context(), username, year, month)
	if err != nil {
		s.logger.Error("ingest month failed",
			zap.String("username", username), zap.Int("year", year), zap.Int("month", month), zap.Error(err))
		writeAPIError(w, http.StatusBadGateway, "ingest_failed", "Ingest failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ToDTOIngestReport(report))
}

func (s *Server) handleIngestArchive(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	report, err := s.ingester.IngestArchive(r.Context(), username)
	if err != nil {
		if errors.Is(err, chesscom.ErrPlayerNotFound) {
			writeAPIError(w, http.StatusNotFound, "player_not_found", "No chess.com archive for this player")
			return
		}
		s.logger.Error("ingest archive failed", zap.String("username", username), zap.Error(err))
		writeAPIError(w, http.StatusBadGateway, "ingest_failed", "Ingest failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ToDTOArchiveReport(report))
}
