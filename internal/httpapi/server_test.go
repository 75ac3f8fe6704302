package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openinglab/chesstrail/internal/chesscom"
	"github.com/openinglab/chesstrail/internal/domain"
	"github.com/openinglab/chesstrail/internal/ingest"
	"github.com/openinglab/chesstrail/internal/opening"
	"github.com/openinglab/chesstrail/internal/query"
	"github.com/openinglab/chesstrail/internal/storage"
	"github.com/openinglab/chesstrail/pkg/gamedto"
)

const monthPGN = `[Event "Live Chess"]
[Site "Chess.com"]
[White "Ann"]
[Black "Bob"]
[Result "1-0"]
[ECO "B90"]
[TimeControl "600"]

1. e4 c5 2. Nf3 d6 1-0`

type stubFetcher struct {
	months   map[string][]chesscom.Game
	archives []string
	monthErr error
	archErr  error
}

func (f *stubFetcher) MonthlyGames(ctx context.Context, username string, year, month int) ([]chesscom.Game, error) {
	if f.monthErr != nil {
		return nil, f.monthErr
	}
	return f.months[fmt.Sprintf("%04d-%02d", year, month)], nil
}

func (f *stubFetcher) Archives(ctx context.Context, username string) ([]string, error) {
	if f.archErr != nil {
		return nil, f.archErr
	}
	return f.archives, nil
}

func newTestServer(t *testing.T, fetcher ingest.Fetcher) (http.Handler, storage.Repository) {
	t.Helper()
	catalog, err := opening.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	repo := storage.NewMemory()
	queries, err := query.NewService(repo, catalog, nil)
	if err != nil {
		t.Fatalf("query service: %v", err)
	}
	ingester, err := ingest.NewService(fetcher, repo, catalog, nil, 0, nil)
	if err != nil {
		t.Fatalf("ingest service: %v", err)
	}
	srv, err := NewServer(queries, ingester, nil, nil)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	return srv.Router(), repo
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp gamedto.APIErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("error envelope has %d entries, want 1", len(resp.Errors))
	}
	return resp.Errors[0].Code
}

func seedGame(t *testing.T, repo storage.Repository, white, black, result, eco, openingName, pgnText string) int64 {
	t.Helper()
	id, err := repo.InsertGame(context.Background(), &domain.RawGame{
		PGN:     pgnText,
		Year:    2024,
		Month:   3,
		White:   white,
		Black:   black,
		Result:  result,
		ECO:     eco,
		Opening: openingName,
	})
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}
	return id
}

func TestMetaEndpoint(t *testing.T) {
	h, _ := newTestServer(t, &stubFetcher{})

	rec := doRequest(t, h, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var meta gamedto.Meta
	if err := json.NewDecoder(rec.Body).Decode(&meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if !meta.OK || meta.Service != "chesstrail" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestFetchMonthEndpoint(t *testing.T) {
	fetcher := &stubFetcher{months: map[string][]chesscom.Game{
		"2024-03": {{
			PGN:         monthPGN,
			TimeControl: "600",
			EndTime:     1709999999,
			ECOURL:      "https://www.chess.com/openings/Sicilian-Defense",
			White:       chesscom.Player{Username: "Ann"},
			Black:       chesscom.Player{Username: "Bob"},
		}},
	}}
	h, _ := newTestServer(t, fetcher)

	rec := doRequest(t, h, http.MethodGet, "/games/ann/2024/3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var games []*gamedto.FetchedGame
	if err := json.NewDecoder(rec.Body).Decode(&games); err != nil {
		t.Fatalf("decode games: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	g := games[0]
	if g.White != "Ann" || g.Black != "Bob" {
		t.Fatalf("players = %s/%s", g.White, g.Black)
	}
	if g.ECO != "B90" || g.Result != "1-0" {
		t.Fatalf("eco/result = %s/%s", g.ECO, g.Result)
	}
	if g.OpeningName != "Sicilian Defense" {
		t.Fatalf("opening_name = %q", g.OpeningName)
	}
}

func TestFetchMonthPathValidation(t *testing.T) {
	h, _ := newTestServer(t, &stubFetcher{})

	cases := []struct {
		name     string
		target   string
		wantCode string
	}{
		{"year before archive epoch", "/games/ann/2005/3", "invalid_year"},
		{"year not a number", "/games/ann/soon/3", "invalid_year"},
		{"month too large", "/games/ann/2024/13", "invalid_month"},
		{"month zero", "/games/ann/2024/0", "invalid_month"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tc.target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if code := decodeErrorCode(t, rec); code != tc.wantCode {
				t.Fatalf("code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestFetchMonthUpstreamFailure(t *testing.T) {
	h, _ := newTestServer(t, &stubFetcher{monthErr: fmt.Errorf("connect refused")})

	rec := doRequest(t, h, http.MethodGet, "/games/ann/2024/3")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "upstream_fetch_failed" {
		t.Fatalf("code = %q", code)
	}
}

func TestIngestMonthEndpoint(t *testing.T) {
	fetcher := &stubFetcher{months: map[string][]chesscom.Game{
		"2024-03": {{
			PGN:   monthPGN,
			White: chesscom.Player{Username: "Ann"},
			Black: chesscom.Player{Username: "Bob"},
		}},
	}}
	h, _ := newTestServer(t, fetcher)

	rec := doRequest(t, h, http.MethodPost, "/ingest/ann/2024/3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var report gamedto.IngestReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.RunID == "" {
		t.Fatal("run_id is empty")
	}
	if report.Fetched != 1 || report.Inserted != 1 || report.Skipped != 0 {
		t.Fatalf("report = %+v", report)
	}

	rec = doRequest(t, h, http.MethodPost, "/ingest/ann/2024/3")
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode second report: %v", err)
	}
	if report.Inserted != 0 || report.Skipped != 1 {
		t.Fatalf("second report = %+v", report)
	}
}

func TestIngestArchiveEndpoint(t *testing.T) {
	fetcher := &stubFetcher{
		archives: []string{
			"https://api.chess.com/pub/player/ann/games/2024/02",
			"https://api.chess.com/pub/player/ann/games/2024/03",
		},
		months: map[string][]chesscom.Game{
			"2024-03": {{
				PGN:   monthPGN,
				White: chesscom.Player{Username: "Ann"},
				Black: chesscom.Player{Username: "Bob"},
			}},
		},
	}
	h, _ := newTestServer(t, fetcher)

	rec := doRequest(t, h, http.MethodPost, "/ingest/ann")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var report gamedto.ArchiveIngestReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Months != 2 || report.Fetched != 1 || report.Inserted != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestIngestArchiveUnknownPlayer(t *testing.T) {
	h, _ := newTestServer(t, &stubFetcher{archErr: chesscom.ErrPlayerNotFound})

	rec := doRequest(t, h, http.MethodPost, "/ingest/ghost")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "player_not_found" {
		t.Fatalf("code = %q", code)
	}
}

func TestAgentGamesEndpoint(t *testing.T) {
	h, repo := newTestServer(t, &stubFetcher{})
	seedGame(t, repo, "Ann", "Bob", "1-0", "B90", "Sicilian Defense", monthPGN)
	seedGame(t, repo, "Bob", "Ann", "1-0", "D10", "Queen's Gambit", `[White "Bob"]
[Black "Ann"]
[Result "1-0"]

1. d4 d5 2. c4 c6 1-0`)

	rec := doRequest(t, h, http.MethodGet, "/agent/games?username=ann&result=win")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var views []*gamedto.GameView
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode views: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1", len(views))
	}
	v := views[0]
	if v.Family != "Sicilian Defense" {
		t.Fatalf("family = %q", v.Family)
	}
	if v.MyColor == nil || *v.MyColor != "white" {
		t.Fatalf("my_color = %v", v.MyColor)
	}
	if v.POVResult == nil || *v.POVResult != "win" {
		t.Fatalf("pov_result = %v", v.POVResult)
	}
	if v.Date != nil || v.PlyCount != nil {
		t.Fatalf("date/ply_count should be null, got %v/%v", v.Date, v.PlyCount)
	}
}

func TestAgentGamesEmptyList(t *testing.T) {
	h, _ := newTestServer(t, &stubFetcher{})

	rec := doRequest(t, h, http.MethodGet, "/agent/games?username=nobody")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want []", body)
	}
}

func TestAgentGamesParamValidation(t *testing.T) {
	h, _ := newTestServer(t, &stubFetcher{})

	cases := []struct {
		name     string
		target   string
		wantCode string
	}{
		{"missing username", "/agent/games", "missing_username"},
		{"blank username", "/agent/games?username=%20", "missing_username"},
		{"bad color", "/agent/games?username=ann&color=green", "invalid_color"},
		{"bad result", "/agent/games?username=ann&result=banana", "invalid_result"},
		{"limit zero", "/agent/games?username=ann&limit=0", "invalid_limit"},
		{"limit above cap", "/agent/games?username=ann&limit=201", "invalid_limit"},
		{"limit not a number", "/agent/games?username=ann&limit=many", "invalid_limit"},
		{"negative offset", "/agent/games?username=ann&offset=-1", "invalid_offset"},
		{"bad order_by", "/agent/games?username=ann&order_by=rating", "invalid_order_by"},
		{"bad order_dir", "/agent/games?username=ann&order_dir=up", "invalid_order_dir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tc.target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if code := decodeErrorCode(t, rec); code != tc.wantCode {
				t.Fatalf("code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestAgentSugarEndpoints(t *testing.T) {
	h, repo := newTestServer(t, &stubFetcher{})
	seedGame(t, repo, "Ann", "Bob", "1-0", "B90", "Sicilian Defense", `[Result "1-0"]

1. e4 c5 1-0`)
	seedGame(t, repo, "Ann", "Bob", "0-1", "C50", "Italian Game", `[Result "0-1"]

1. e4 e5 0-1`)
	seedGame(t, repo, "Bob", "Ann", "1/2-1/2", "D10", "Slav Defense", `[Result "1/2-1/2"]

1. d4 d5 1/2-1/2`)

	cases := []struct {
		path       string
		wantResult string
	}{
		{"/agent/games/wins", "win"},
		{"/agent/games/losses", "loss"},
		{"/agent/games/draws", "draw"},
	}
	for _, tc := range cases {
		t.Run(tc.wantResult, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tc.path+"?username=ann")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var views []*gamedto.GameView
			if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
				t.Fatalf("decode views: %v", err)
			}
			if len(views) != 1 {
				t.Fatalf("got %d views, want 1", len(views))
			}
			if views[0].POVResult == nil || *views[0].POVResult != tc.wantResult {
				t.Fatalf("pov_result = %v, want %s", views[0].POVResult, tc.wantResult)
			}
		})
	}
}

func TestAgentSugarIgnoresResultParam(t *testing.T) {
	h, repo := newTestServer(t, &stubFetcher{})
	seedGame(t, repo, "Ann", "Bob", "1-0", "B90", "Sicilian Defense", `[Result "1-0"]

1. e4 c5 1-0`)

	// the wins endpoint does not accept a result parameter; a stray one
	// must not override the pinned result
	rec := doRequest(t, h, http.MethodGet, "/agent/games/wins?username=ann&result=loss")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var views []*gamedto.GameView
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode views: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1", len(views))
	}
}

func TestBoardEndpoint(t *testing.T) {
	h, repo := newTestServer(t, &stubFetcher{})
	id := seedGame(t, repo, "Ann", "Bob", "1-0", "B90", "Sicilian Defense", monthPGN)

	rec := doRequest(t, h, http.MethodGet, fmt.Sprintf("/agent/games/%d/board.png?username=ann", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content-type = %q", ct)
	}
	if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Fatalf("body is not a png: %v", err)
	}
}

func TestBoardEndpointAccess(t *testing.T) {
	h, repo := newTestServer(t, &stubFetcher{})
	id := seedGame(t, repo, "Ann", "Bob", "1-0", "B90", "Sicilian Defense", monthPGN)

	cases := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"missing username", fmt.Sprintf("/agent/games/%d/board.png", id), http.StatusBadRequest, "missing_username"},
		{"uninvolved user", fmt.Sprintf("/agent/games/%d/board.png?username=carol", id), http.StatusNotFound, "game_not_found"},
		{"unknown id", "/agent/games/999/board.png?username=ann", http.StatusNotFound, "game_not_found"},
		{"bad id", "/agent/games/first/board.png?username=ann", http.StatusBadRequest, "invalid_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tc.target)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if code := decodeErrorCode(t, rec); code != tc.wantCode {
				t.Fatalf("code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, &stubFetcher{})

	rec := doRequest(t, h, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chesstrail_") {
		t.Fatal("metrics output missing chesstrail collectors")
	}
}
