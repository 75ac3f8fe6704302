package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/openinglab/chesstrail/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS games (
		id           BIGSERIAL PRIMARY KEY,
		pgn_sha1     TEXT NOT NULL UNIQUE,
		pgn          TEXT NOT NULL,
		year         INT NOT NULL,
		month        INT NOT NULL,
		white        TEXT NOT NULL DEFAULT '',
		black        TEXT NOT NULL DEFAULT '',
		result       TEXT NOT NULL DEFAULT '',
		time_control TEXT NOT NULL DEFAULT '',
		eco_url      TEXT NOT NULL DEFAULT '',
		eco          TEXT NOT NULL DEFAULT '',
		opening      TEXT NOT NULL DEFAULT '',
		end_time_utc TIMESTAMPTZ
	)`

type postgresRepo struct {
	db *sql.DB
}

// NewPostgres opens a pooled connection, verifies it and ensures the
// games table exists.
func NewPostgres(databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure games table: %w", err)
	}
	return &postgresRepo{db: db}, nil
}

func (r *postgresRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *postgresRepo) InsertGame(ctx context.Context, game *domain.RawGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil game payload")
	}

	const query = `
		INSERT INTO games (
			pgn_sha1,
			pgn,
			year,
			month,
			white,
			black,
			result,
			time_control,
			eco_url,
			eco,
			opening,
			end_time_utc
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (pgn_sha1) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err := r.db.QueryRowContext(
		ctx,
		query,
		pgnHash(game.PGN),
		game.PGN,
		game.Year,
		game.Month,
		game.White,
		game.Black,
		game.Result,
		game.TimeControl,
		game.ECOURL,
		game.ECO,
		game.Opening,
		game.EndTimeUTC,
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id.Int64, nil
}

func (r *postgresRepo) GamesByPlayer(ctx context.Context, username string, filter CandidateFilter) ([]*domain.StoredGame, error) {
	query := `
		SELECT
			id,
			pgn_sha1,
			pgn,
			year,
			month,
			white,
			black,
			result,
			time_control,
			eco_url,
			eco,
			opening,
			end_time_utc
		FROM games
		WHERE (white ILIKE $1 OR black ILIKE $1)`
	args := []any{"%" + username + "%"}

	if filter.OpeningLike != "" {
		args = append(args, "%"+filter.OpeningLike+"%")
		query += fmt.Sprintf(" AND opening ILIKE $%d", len(args))
	}
	if filter.ECOPrefix != "" {
		args = append(args, filter.ECOPrefix+"%")
		query += fmt.Sprintf(" AND eco ILIKE $%d", len(args))
	}
	if filter.Descending {
		query += " ORDER BY id DESC"
	} else {
		query += " ORDER BY id ASC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.StoredGame, 0, 32)
	for rows.Next() {
		var (
			game    domain.StoredGame
			endTime sql.NullTime
		)
		if err := rows.Scan(
			&game.ID,
			&game.PGNSHA1,
			&game.PGN,
			&game.Year,
			&game.Month,
			&game.White,
			&game.Black,
			&game.Result,
			&game.TimeControl,
			&game.ECOURL,
			&game.ECO,
			&game.Opening,
			&endTime,
		); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if endTime.Valid {
			t := endTime.Time.UTC()
			game.EndTimeUTC = &t
		}
		games = append(games, &game)
	}
	return games, rows.Err()
}

func (r *postgresRepo) GameByID(ctx context.Context, id int64) (*domain.StoredGame, error) {
	const query = `
		SELECT
			id,
			pgn_sha1,
			pgn,
			year,
			month,
			white,
			black,
			result,
			time_control,
			eco_url,
			eco,
			opening,
			end_time_utc
		FROM games
		WHERE id = $1`

	var (
		game    domain.StoredGame
		endTime sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&game.ID,
		&game.PGNSHA1,
		&game.PGN,
		&game.Year,
		&game.Month,
		&game.White,
		&game.Black,
		&game.Result,
		&game.TimeControl,
		&game.ECOURL,
		&game.ECO,
		&game.Opening,
		&endTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select game: %w", err)
	}
	if endTime.Valid {
		t := endTime.Time.UTC()
		game.EndTimeUTC = &t
	}
	return &game, nil
}
