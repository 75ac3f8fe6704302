package gamedto

import "time"

// GameView is the agent query row. Fields the schema cannot derive
// (date, ply_count) and per-user fields that did not resolve serialize
// as explicit nulls.
type GameView struct {
	ID          int64      `json:"id"`
	Date        *string    `json:"date"`
	White       string     `json:"white"`
	Black       string     `json:"black"`
	MyColor     *string    `json:"my_color"`
	POVResult   *string    `json:"pov_result"`
	ECO         string     `json:"eco"`
	Opening     string     `json:"opening"`
	Family      string     `json:"family"`
	TimeControl string     `json:"time_control"`
	PlyCount    *int       `json:"ply_count"`
	EndTimeUTC  *time.Time `json:"end_time_utc"`
}

// FetchedGame is one row of the fetch-only month endpoint: the stored
// schema projection before any insert happens.
type FetchedGame struct {
	PGN         string     `json:"pgn"`
	Year        int        `json:"year"`
	Month       int        `json:"month"`
	White       string     `json:"white"`
	Black       string     `json:"black"`
	Result      string     `json:"result"`
	TimeControl string     `json:"time_control"`
	ECOURL      string     `json:"eco_url"`
	ECO         string     `json:"eco"`
	OpeningName string     `json:"opening_name"`
	EndTimeUTC  *time.Time `json:"end_time_utc"`
}

// IngestReport is the month ingest response.
type IngestReport struct {
	RunID    string `json:"run_id"`
	Username string `json:"username"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

// ArchiveIngestReport is the archive-walk ingest response.
type ArchiveIngestReport struct {
	RunID    string `json:"run_id"`
	Username string `json:"username"`
	Months   int    `json:"months"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

// Meta is the root health/meta response.
type Meta struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}
