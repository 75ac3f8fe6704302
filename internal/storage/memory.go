package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/openinglab/chesstrail/internal/domain"
)

// memoryRepo is a development-oriented in-memory backend used when no
// database is configured. It mirrors the ILIKE semantics of the
// postgres backend so the query layer behaves identically on top.
type memoryRepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID   map[int64]*domain.StoredGame
	gamesByHash map[string]*domain.StoredGame
}

func NewMemory() Repository {
	return &memoryRepo{
		gamesByID:   make(map[int64]*domain.StoredGame),
		gamesByHash: make(map[string]*domain.StoredGame),
	}
}

func (m *memoryRepo) Close() error { return nil }

func (m *memoryRepo) InsertGame(ctx context.Context, game *domain.RawGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil game payload")
	}
	digest := pgnHash(game.PGN)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesByHash[digest]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := &domain.StoredGame{
		ID:          m.nextID,
		PGNSHA1:     digest,
		PGN:         game.PGN,
		Year:        game.Year,
		Month:       game.Month,
		White:       game.White,
		Black:       game.Black,
		Result:      game.Result,
		TimeControl: game.TimeControl,
		ECOURL:      game.ECOURL,
		ECO:         game.ECO,
		Opening:     game.Opening,
	}
	if game.EndTimeUTC != nil {
		t := *game.EndTimeUTC
		stored.EndTimeUTC = &t
	}

	m.gamesByID[stored.ID] = stored
	m.gamesByHash[digest] = stored
	return stored.ID, nil
}

func (m *memoryRepo) GamesByPlayer(ctx context.Context, username string, filter CandidateFilter) ([]*domain.StoredGame, error) {
	needle := strings.ToLower(username)
	openingLike := strings.ToLower(filter.OpeningLike)
	ecoPrefix := strings.ToLower(filter.ECOPrefix)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.StoredGame, 0, len(m.gamesByID))
	for _, g := range m.gamesByID {
		if !strings.Contains(strings.ToLower(g.White), needle) &&
			!strings.Contains(strings.ToLower(g.Black), needle) {
			continue
		}
		if openingLike != "" && !strings.Contains(strings.ToLower(g.Opening), openingLike) {
			continue
		}
		if ecoPrefix != "" && !strings.HasPrefix(strings.ToLower(g.ECO), ecoPrefix) {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Descending {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryRepo) GameByID(ctx context.Context, id int64) (*domain.StoredGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesByID[id]; ok && g != nil {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}
