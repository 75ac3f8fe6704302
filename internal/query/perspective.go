package query

import (
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/openinglab/chesstrail/internal/domain"
)

// ResolveColor reports the side the user played, by case-insensitive
// equality against the stored player names. Nil means neither side
// matched, which happens for rows pulled in by substring candidate
// matching only.
func ResolveColor(username string, g *domain.StoredGame) *domain.Color {
	u := strings.ToLower(username)
	if strings.ToLower(g.White) == u {
		c := domain.ColorWhite
		return &c
	}
	if strings.ToLower(g.Black) == u {
		c := domain.ColorBlack
		return &c
	}
	return nil
}

// ResolvePerspective maps the stored PGN outcome to win/loss/draw from
// the user's point of view. Nil when the outcome is absent or
// unrecognized, or the user is neither player.
func ResolvePerspective(username string, g *domain.StoredGame) *domain.Perspective {
	if g.Result == "" {
		return nil
	}
	u := strings.ToLower(username)
	isWhite := strings.ToLower(g.White) == u
	isBlack := strings.ToLower(g.Black) == u
	if !isWhite && !isBlack {
		return nil
	}

	var p domain.Perspective
	switch nchess.Outcome(g.Result) {
	case nchess.Draw:
		p = domain.PerspectiveDraw
	case nchess.WhiteWon:
		if isWhite {
			p = domain.PerspectiveWin
		} else {
			p = domain.PerspectiveLoss
		}
	case nchess.BlackWon:
		if isBlack {
			p = domain.PerspectiveWin
		} else {
			p = domain.PerspectiveLoss
		}
	default:
		return nil
	}
	return &p
}
