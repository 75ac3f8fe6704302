package domain

import "time"

// Color is a side in a single game, seen from the requesting user.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Perspective is a game outcome relative to the requesting user.
type Perspective string

const (
	PerspectiveWin  Perspective = "win"
	PerspectiveLoss Perspective = "loss"
	PerspectiveDraw Perspective = "draw"
)

// StoredGame is one persisted game row. Rows are insert-only; family,
// color and perspective are derived on read and never stored.
// Empty string means the upstream record had no value for that column.
type StoredGame struct {
	ID          int64
	PGNSHA1     string
	PGN         string
	Year        int
	Month       int
	White       string
	Black       string
	Result      string // PGN outcome literal: 1-0, 0-1, 1/2-1/2, or empty
	TimeControl string
	ECOURL      string
	ECO         string
	Opening     string
	EndTimeUTC  *time.Time
}

// RawGame is the ingest input: the exact fields the ingest path requires
// from any producer of game data, nothing more.
type RawGame struct {
	PGN         string
	Year        int
	Month       int
	White       string
	Black       string
	Result      string
	TimeControl string
	ECOURL      string
	ECO         string
	Opening     string
	EndTimeUTC  *time.Time
}

// GameView is the per-user projection served by the query engine. Date and
// PlyCount are not derivable from the stored columns and stay nil.
type GameView struct {
	ID          int64
	Date        *string
	White       string
	Black       string
	MyColor     *Color
	POVResult   *Perspective
	ECO         string
	Opening     string
	Family      string
	TimeControl string
	PlyCount    *int
	EndTimeUTC  *time.Time
}
