package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"

	"github.com/openinglab/chesstrail/internal/domain"
)

// ErrDuplicateGame reports an insert whose PGN digest is already stored.
// Callers count these as skipped rather than failing the batch.
var ErrDuplicateGame = errors.New("game already exists")

// CandidateFilter narrows the SQL-side candidate scan. Everything that
// needs the requesting user's point of view (color, result, family) is
// filtered in memory by the query layer afterwards.
type CandidateFilter struct {
	OpeningLike string // case-insensitive substring on the stored opening label
	ECOPrefix   string // case-insensitive prefix on the ECO code
	Descending  bool   // id order of the returned rows
}

type Repository interface {
	InsertGame(ctx context.Context, game *domain.RawGame) (int64, error)
	GamesByPlayer(ctx context.Context, username string, filter CandidateFilter) ([]*domain.StoredGame, error)
	GameByID(ctx context.Context, id int64) (*domain.StoredGame, error)
	Close() error
}

// pgnHash is the dedup key: hex SHA-1 of the raw PGN text.
func pgnHash(pgn string) string {
	sum := sha1.Sum([]byte(pgn))
	return hex.EncodeToString(sum[:])
}
