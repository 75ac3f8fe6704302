package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/openinglab/chesstrail/internal/boardimg"
	"github.com/openinglab/chesstrail/internal/domain"
	"github.com/openinglab/chesstrail/internal/metrics"
	"github.com/openinglab/chesstrail/internal/pgn"
	"github.com/openinglab/chesstrail/internal/query"
)

type agentParams struct {
	username string
	filters  query.Filters
	page     query.Page
}

// parseAgentParams reads the shared agent query parameters. The result
// filter and ordering are only read on the endpoints that accept them;
// the sugar endpoints pin the result and use the default order.
func parseAgentParams(w http.ResponseWriter, r *http.Request, withResult, withOrder bool) (agentParams, bool) {
	q := r.URL.Query()
	var p agentParams

	p.username = strings.TrimSpace(q.Get("username"))
	if p.username == "" {
		writeAPIError(w, http.StatusBadRequest, "missing_username", "username query parameter is required")
		return p, false
	}

	p.filters.OpeningLike = q.Get("opening_like")
	p.filters.ECOPrefix = q.Get("eco_prefix")
	p.filters.Family = q.Get("family")

	switch color := strings.ToLower(q.Get("color")); color {
	case "":
	case "white":
		p.filters.Color = domain.ColorWhite
	case "black":
		p.filters.Color = domain.ColorBlack
	default:
		writeAPIError(w, http.StatusBadRequest, "invalid_color", "color must be 'white' or 'black'")
		return p, false
	}

	if withResult {
		switch result := strings.ToLower(q.Get("result")); result {
		case "":
		case "win":
			p.filters.Result = domain.PerspectiveWin
		case "loss":
			p.filters.Result = domain.PerspectiveLoss
		case "draw":
			p.filters.Result = domain.PerspectiveDraw
		default:
			writeAPIError(w, http.StatusBadRequest, "invalid_result", "result must be 'win', 'loss' or 'draw'")
			return p, false
		}
	}

	p.page.Limit = 50
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeAPIError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer between 1 and 200")
			return p, false
		}
		p.page.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAPIError(w, http.StatusBadRequest, "invalid_offset", "offset must be a non-negative integer")
			return p, false
		}
		p.page.Offset = n
	}

	if withOrder {
		switch orderBy := strings.ToLower(q.Get("order_by")); orderBy {
		case "", "id", "date":
			p.page.OrderBy = orderBy
		default:
			writeAPIError(w, http.StatusBadRequest, "invalid_order_by", "order_by must be 'id' or 'date'")
			return p, false
		}
		switch orderDir := strings.ToLower(q.Get("order_dir")); orderDir {
		case "", "asc", "desc":
			p.page.OrderDir = orderDir
		default:
			writeAPIError(w, http.StatusBadRequest, "invalid_order_dir", "order_dir must be 'asc' or 'desc'")
			return p, false
		}
	}

	return p, true
}

type gameQuery func(p agentParams) ([]*domain.GameView, error)

func (s *Server) serveAgentGames(w http.ResponseWriter, r *http.Request, withResult, withOrder bool, run gameQuery) {
	p, ok := parseAgentParams(w, r, withResult, withOrder)
	if !ok {
		return
	}

	metrics.AgentQueriesTotal.Inc()

	views, err := run(p)
	if err != nil {
		s.logger.Error("agent query failed", zap.String("username", p.username), zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "query_failed", "Failed to query games")
		return
	}

	writeJSON(w, http.StatusOK, ToDTOGameViews(views))
}

func (s *Server) handleAgentGames(w http.ResponseWriter, r *http.Request) {
	s.serveAgentGames(w, r, true, true, func(p agentParams) ([]*domain.GameView, error) {
		return s.queries.Games(r.Context(), p.username, p.filters, p.page)
	})
}

func (s *Server) handleAgentWins(w http.ResponseWriter, r *http.Request) {
	s.serveAgentGames(w, r, false, false, func(p agentParams) ([]*domain.GameView, error) {
		return s.queries.Wins(r.Context(), p.username, p.filters, p.page)
	})
}

func (s *Server) handleAgentLosses(w http.ResponseWriter, r *http.Request) {
	s.serveAgentGames(w, r, false, false, func(p agentParams) ([]*domain.GameView, error) {
		return s.queries.Losses(r.Context(), p.username, p.filters, p.page)
	})
}

func (s *Server) handleAgentDraws(w http.ResponseWriter, r *http.Request) {
	s.serveAgentGames(w, r, false, false, func(p agentParams) ([]*domain.GameView, error) {
		return s.queries.Draws(r.Context(), p.username, p.filters, p.page)
	})
}

func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_id", "game id must be an integer")
		return
	}

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeAPIError(w, http.StatusBadRequest, "missing_username", "username query parameter is required")
		return
	}

	game, err := s.queries.Game(r.Context(), username, id)
	if err != nil {
		s.logger.Error("board lookup failed", zap.Int64("game_id", id), zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "query_failed", "Failed to load game")
		return
	}
	if game == nil {
		writeAPIError(w, http.StatusNotFound, "game_not_found", "No game with this id for this user")
		return
	}

	board := boardimg.FinalBoard(pgn.MainlineMoves(game.PGN, 0))
	data, err := s.renderer.RenderPNG(r.Context(), board)
	if err != nil {
		s.logger.Error("board render failed", zap.Int64("game_id", id), zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "render_failed", "Failed to render board")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
