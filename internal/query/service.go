package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/openinglab/chesstrail/internal/domain"
	"github.com/openinglab/chesstrail/internal/opening"
	"github.com/openinglab/chesstrail/internal/pgn"
	"github.com/openinglab/chesstrail/internal/storage"
)

// Filters narrows a game listing. Zero values mean "any".
type Filters struct {
	OpeningLike string             // substring of the stored opening label
	ECOPrefix   string             // ECO code prefix
	Family      string             // classified family, compared case-insensitively
	Color       domain.Color       // side the user played
	Result      domain.Perspective // outcome from the user's point of view
}

// Page controls ordering and the final slice window. OrderBy accepts
// "id" and "date"; date is not a stored column, so it orders by id too.
type Page struct {
	Limit    int
	Offset   int
	OrderBy  string
	OrderDir string
}

const defaultLimit = 50

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if !strings.EqualFold(p.OrderDir, "asc") {
		p.OrderDir = "desc"
	}
	return p
}

// Service answers per-user game questions: which games, with which
// openings, as which color, with which outcome. Candidates come from
// storage; everything needing the user's point of view is derived here.
type Service struct {
	repo    storage.Repository
	catalog *opening.Catalog
	logger  *zap.Logger
}

func NewService(repo storage.Repository, catalog *opening.Catalog, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("game repository is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("opening catalog is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, catalog: catalog, logger: logger}, nil
}

// Games runs the full pipeline: candidate scan, point-of-view filters,
// pagination last, projection to views.
func (s *Service) Games(ctx context.Context, username string, filters Filters, page Page) ([]*domain.GameView, error) {
	page = page.normalized()

	rows, err := s.repo.GamesByPlayer(ctx, username, storage.CandidateFilter{
		OpeningLike: filters.OpeningLike,
		ECOPrefix:   filters.ECOPrefix,
		Descending:  page.OrderDir != "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("candidate scan: %w", err)
	}

	out := make([]*domain.GameView, 0, len(rows))
	for _, g := range rows {
		myColor := ResolveColor(username, g)
		if filters.Color != "" && (myColor == nil || *myColor != filters.Color) {
			continue
		}

		pov := ResolvePerspective(username, g)
		if filters.Result != "" && (pov == nil || *pov != filters.Result) {
			continue
		}

		family := s.familyOf(g)
		if filters.Family != "" && !strings.EqualFold(family, filters.Family) {
			continue
		}

		out = append(out, &domain.GameView{
			ID:          g.ID,
			White:       g.White,
			Black:       g.Black,
			MyColor:     myColor,
			POVResult:   pov,
			ECO:         g.ECO,
			Opening:     g.Opening,
			Family:      family,
			TimeControl: g.TimeControl,
			EndTimeUTC:  g.EndTimeUTC,
		})
	}

	// paginate after all filters
	if page.Offset >= len(out) {
		return []*domain.GameView{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(out) {
		end = len(out)
	}
	s.logger.Debug("games_query",
		zap.String("username", username),
		zap.Int("candidates", len(rows)),
		zap.Int("matched", len(out)),
		zap.Int("returned", end-page.Offset),
	)
	return out[page.Offset:end], nil
}

func (s *Service) Wins(ctx context.Context, username string, filters Filters, page Page) ([]*domain.GameView, error) {
	filters.Result = domain.PerspectiveWin
	return s.Games(ctx, username, filters, page)
}

func (s *Service) Losses(ctx context.Context, username string, filters Filters, page Page) ([]*domain.GameView, error) {
	filters.Result = domain.PerspectiveLoss
	return s.Games(ctx, username, filters, page)
}

func (s *Service) Draws(ctx context.Context, username string, filters Filters, page Page) ([]*domain.GameView, error) {
	filters.Result = domain.PerspectiveDraw
	return s.Games(ctx, username, filters, page)
}

// GamesByOpening is Games with a tri-state won flag: true means wins
// only, false losses only, nil no result filter.
func (s *Service) GamesByOpening(ctx context.Context, username string, filters Filters, won *bool, page Page) ([]*domain.GameView, error) {
	if won != nil {
		if *won {
			filters.Result = domain.PerspectiveWin
		} else {
			filters.Result = domain.PerspectiveLoss
		}
	}
	return s.Games(ctx, username, filters, page)
}

// Game fetches one stored row if the username is involved in it, under
// the same substring containment rule as the candidate scan.
func (s *Service) Game(ctx context.Context, username string, id int64) (*domain.StoredGame, error) {
	g, err := s.repo.GameByID(ctx, id)
	if err != nil || g == nil {
		return nil, err
	}
	u := strings.ToLower(username)
	if !strings.Contains(strings.ToLower(g.White), u) &&
		!strings.Contains(strings.ToLower(g.Black), u) {
		return nil, nil
	}
	return g, nil
}

// familyOf classifies a row. Rows missing both stored opening columns
// fall back to the PGN's own header tags.
func (s *Service) familyOf(g *domain.StoredGame) string {
	eco, name := g.ECO, g.Opening
	if eco == "" && name == "" {
		eco = pgn.Header(g.PGN, pgn.TagECO)
		name = pgn.Header(g.PGN, pgn.TagOpening)
	}
	return s.catalog.Classify(eco, name)
}
