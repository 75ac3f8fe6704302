package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	ecobook "github.com/corentings/chess/v2/opening"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openinglab/chesstrail/internal/archcache"
	"github.com/openinglab/chesstrail/internal/chesscom"
	"github.com/openinglab/chesstrail/internal/domain"
	"github.com/openinglab/chesstrail/internal/metrics"
	"github.com/openinglab/chesstrail/internal/opening"
	"github.com/openinglab/chesstrail/internal/pgn"
	"github.com/openinglab/chesstrail/internal/storage"
)

// Fetcher is the slice of the archive client the ingest path needs.
type Fetcher interface {
	MonthlyGames(ctx context.Context, username string, year, month int) ([]chesscom.Game, error)
	Archives(ctx context.Context, username string) ([]string, error)
}

// Report summarizes one month's ingest run.
type Report struct {
	RunID    string
	Username string
	Year     int
	Month    int
	Fetched  int
	Inserted int
	Skipped  int
}

// ArchiveReport aggregates a whole-archive walk.
type ArchiveReport struct {
	RunID    string
	Username string
	Months   int
	Fetched  int
	Inserted int
	Skipped  int
}

const defaultBookMaxPly = 24

// Service fetches months from the archive API and stores them. Duplicate
// rows are counted as skipped; the storage uniqueness constraint is the
// sole dedup authority.
type Service struct {
	fetcher Fetcher
	repo    storage.Repository
	catalog *opening.Catalog
	cache   *archcache.Cache
	book    *ecobook.BookECO
	maxPly  int
	logger  *zap.Logger
}

func NewService(fetcher Fetcher, repo storage.Repository, catalog *opening.Catalog, cache *archcache.Cache, bookMaxPly int, logger *zap.Logger) (*Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("archive fetcher is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("game repository is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("opening catalog is required")
	}
	if bookMaxPly <= 0 {
		bookMaxPly = defaultBookMaxPly
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		catalog: catalog,
		cache:   cache,
		book:    ecobook.NewBookECO(),
		maxPly:  bookMaxPly,
		logger:  logger,
	}, nil
}

// FetchMonth returns one month of games already projected onto the
// stored schema, without writing anything.
func (s *Service) FetchMonth(ctx context.Context, username string, year, month int) ([]*domain.RawGame, error) {
	games, err := s.fetchUpstream(ctx, username, year, month)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.RawGame, 0, len(games))
	for _, g := range games {
		out = append(out, s.mapGame(g, year, month))
	}
	return out, nil
}

// IngestMonth fetches one month and stores every game, counting inserts
// and duplicate skips.
func (s *Service) IngestMonth(ctx context.Context, username string, year, month int) (*Report, error) {
	return s.ingestMonth(ctx, uuid.NewString(), username, year, month)
}

// IngestArchive walks every archived month for the player, oldest first,
// and aggregates the per-month counts.
func (s *Service) IngestArchive(ctx context.Context, username string) (*ArchiveReport, error) {
	runID := uuid.NewString()
	archives, err := s.fetcher.Archives(ctx, username)
	if err != nil {
		return nil, err
	}

	report := &ArchiveReport{RunID: runID, Username: username}
	for _, u := range archives {
		year, month, ok := parseArchiveURL(u)
		if !ok {
			s.logger.Warn("archive_url_skipped", zap.String("run_id", runID), zap.String("url", u))
			continue
		}
		m, err := s.ingestMonth(ctx, runID, username, year, month)
		if err != nil {
			return nil, err
		}
		report.Months++
		report.Fetched += m.Fetched
		report.Inserted += m.Inserted
		report.Skipped += m.Skipped
	}

	s.logger.Info("ingest_archive",
		zap.String("run_id", runID),
		zap.String("username", username),
		zap.Int("months", report.Months),
		zap.Int("fetched", report.Fetched),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (s *Service) ingestMonth(ctx context.Context, runID, username string, year, month int) (*Report, error) {
	games, err := s.fetchUpstream(ctx, username, year, month)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %04d/%02d: %w", username, year, month, err)
	}

	report := &Report{RunID: runID, Username: username, Year: year, Month: month, Fetched: len(games)}
	for _, g := range games {
		_, err := s.repo.InsertGame(ctx, s.mapGame(g, year, month))
		if errors.Is(err, storage.ErrDuplicateGame) {
			report.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store game for %s: %w", username, err)
		}
		report.Inserted++
	}
	metrics.GamesIngestedTotal.Add(float64(report.Inserted))
	metrics.GamesSkippedTotal.Add(float64(report.Skipped))

	s.logger.Info("ingest_month",
		zap.String("run_id", runID),
		zap.String("username", username),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("fetched", report.Fetched),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// fetchUpstream is the cache-aware month fetch. Completed months are
// immutable upstream, so only those are read from or written to cache.
func (s *Service) fetchUpstream(ctx context.Context, username string, year, month int) ([]chesscom.Game, error) {
	completed := archcache.Completed(year, month, time.Now())
	if completed {
		games, ok, err := s.cache.LoadMonth(ctx, username, year, month)
		if err != nil {
			s.logger.Warn("archive_cache_load_error", zap.String("username", username), zap.Error(err))
		} else if ok {
			metrics.ArchiveCacheHitsTotal.Inc()
			return games, nil
		}
	}

	start := time.Now()
	games, err := s.fetcher.MonthlyGames(ctx, username, year, month)
	if err != nil {
		return nil, err
	}
	metrics.MonthFetchesTotal.Inc()
	metrics.UpstreamFetchLatency.Observe(time.Since(start).Seconds())

	if completed {
		if err := s.cache.SaveMonth(ctx, username, year, month, games); err != nil {
			s.logger.Warn("archive_cache_save_error", zap.String("username", username), zap.Error(err))
		}
	}
	return games, nil
}

// mapGame projects an upstream month entry onto the stored schema. The
// month payload carries no opening name, so the stored opening label is
// the classified family of the ECO code.
func (s *Service) mapGame(g chesscom.Game, year, month int) *domain.RawGame {
	raw := g.PGN
	ecoCode := pgn.Header(raw, pgn.TagECO)
	if ecoCode == "" {
		ecoCode = s.bookECO(raw)
	}

	game := &domain.RawGame{
		PGN:         raw,
		Year:        year,
		Month:       month,
		White:       g.White.Username,
		Black:       g.Black.Username,
		Result:      pgn.Header(raw, pgn.TagResult),
		TimeControl: g.TimeControl,
		ECOURL:      g.ECOURL,
		ECO:         ecoCode,
		Opening:     s.catalog.Classify(ecoCode, ""),
	}
	if g.EndTime > 0 {
		t := time.Unix(g.EndTime, 0).UTC()
		game.EndTimeUTC = &t
	}
	return game
}

// bookECO replays the SAN mainline into the library's ECO book. A move
// that fails to apply ends the replay; the book match runs on whatever
// prefix was reached.
func (s *Service) bookECO(raw string) string {
	moves := pgn.MainlineMoves(raw, s.maxPly)
	if len(moves) == 0 {
		return ""
	}
	game := nchess.NewGame()
	for _, san := range moves {
		if err := game.PushNotationMove(san, nchess.AlgebraicNotation{}, nil); err != nil {
			break
		}
	}
	if eco := s.book.Find(game.Moves()); eco != nil {
		return eco.Code()
	}
	return ""
}

// parseArchiveURL pulls year and month out of the trailing
// ".../games/{yyyy}/{mm}" segments of an archive URL.
func parseArchiveURL(u string) (int, int, bool) {
	parts := strings.Split(strings.TrimRight(u, "/"), "/")
	if len(parts) < 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, 0, false
	}
	if year < 2007 || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}
