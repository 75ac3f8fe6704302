package httpapi

import (
	"github.com/openinglab/chesstrail/internal/domain"
	"github.com/openinglab/chesstrail/internal/ingest"
	"github.com/openinglab/chesstrail/pkg/gamedto"
)

func toDTOColor(c *domain.Color) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func toDTOPerspective(p *domain.Perspective) *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

func ToDTOGameView(v *domain.GameView) *gamedto.GameView {
	if v == nil {
		return nil
	}
	return &gamedto.GameView{
		ID:          v.ID,
		Date:        v.Date,
		White:       v.White,
		Black:       v.Black,
		MyColor:     toDTOColor(v.MyColor),
		POVResult:   toDTOPerspective(v.POVResult),
		ECO:         v.ECO,
		Opening:     v.Opening,
		Family:      v.Family,
		TimeControl: v.TimeControl,
		PlyCount:    v.PlyCount,
		EndTimeUTC:  v.EndTimeUTC,
	}
}

func ToDTOGameViews(list []*domain.GameView) []*gamedto.GameView {
	out := make([]*gamedto.GameView, 0, len(list))
	for _, v := range list {
		if v == nil {
			continue
		}
		out = append(out, ToDTOGameView(v))
	}
	return out
}

func ToDTOFetchedGame(g *domain.RawGame) *gamedto.FetchedGame {
	if g == nil {
		return nil
	}
	return &gamedto.FetchedGame{
		PGN:         g.PGN,
		Year:        g.Year,
		Month:       g.Month,
		White:       g.White,
		Black:       g.Black,
		Result:      g.Result,
		TimeControl: g.TimeControl,
		ECOURL:      g.ECOURL,
		ECO:         g.ECO,
		OpeningName: g.Opening,
		EndTimeUTC:  g.EndTimeUTC,
	}
}

func ToDTOFetchedGames(list []*domain.RawGame) []*gamedto.FetchedGame {
	out := make([]*gamedto.FetchedGame, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		out = append(out, ToDTOFetchedGame(g))
	}
	return out
}

func ToDTOIngestReport(r *ingest.Report) *gamedto.IngestReport {
	if r == nil {
		return nil
	}
	return &gamedto.IngestReport{
		RunID:    r.RunID,
		Username: r.Username,
		Year:     r.Year,
		Month:    r.Month,
		Fetched:  r.Fetched,
		Inserted: r.Inserted,
		Skipped:  r.Skipped,
	}
}

func ToDTOArchiveReport(r *ingest.ArchiveReport) *gamedto.ArchiveIngestReport {
	if r == nil {
		return nil
	}
	return &gamedto.ArchiveIngestReport{
		RunID:    r.RunID,
		Username: r.Username,
		Months:   r.Months,
		Fetched:  r.Fetched,
		Inserted: r.Inserted,
		Skipped:  r.Skipped,
	}
}
