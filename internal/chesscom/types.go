package chesscom

// Player is one side of an archived game.
type Player struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

// Game is one archived game from the monthly endpoint. The eco field
// carries an opening URL, not a code; the code lives in the PGN headers.
type Game struct {
	URL         string `json:"url"`
	PGN         string `json:"pgn"`
	TimeControl string `json:"time_control"`
	TimeClass   string `json:"time_class"`
	Rated       bool   `json:"rated"`
	EndTime     int64  `json:"end_time"`
	ECOURL      string `json:"eco"`
	White       Player `json:"white"`
	Black       Player `json:"black"`
}

type monthResponse struct {
	Games []Game `json:"games"`
}

type archivesResponse struct {
	Archives []string `json:"archives"`
}
