package pgn

import (
	"regexp"
	"strings"
)

var (
	moveNumberPattern = regexp.MustCompile(`^\d+\.*$`)
	nagPattern        = regexp.MustCompile(`^\$\d+$`)
)

// MainlineMoves returns the SAN tokens of the main line, in order, capped at
// maxPly when maxPly > 0. Brace comments (including clock annotations),
// parenthesized variations, NAGs, move numbers and the terminating result
// are all dropped.
func MainlineMoves(raw string, maxPly int) []string {
	cleaned := stripAnnotations(movetext(raw))
	var moves []string
	for _, tok := range strings.Fields(cleaned) {
		san, ok := sanToken(tok)
		if !ok {
			continue
		}
		moves = append(moves, san)
		if maxPly > 0 && len(moves) >= maxPly {
			break
		}
	}
	return moves
}

// movetext drops the header lines and returns the remaining body.
func movetext(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && headerPattern.MatchString(trimmed) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// stripAnnotations removes brace comments, semicolon comments and nested
// parenthesized variations.
func stripAnnotations(s string) string {
	var b strings.Builder
	parens := 0
	inBrace := false
	inSemi := false
	for _, r := range s {
		switch {
		case inSemi:
			if r == '\n' {
				inSemi = false
				b.WriteRune(' ')
			}
		case inBrace:
			if r == '}' {
				inBrace = false
				b.WriteRune(' ')
			}
		case r == '{':
			inBrace = true
		case r == ';':
			inSemi = true
		case r == '(':
			parens++
		case r == ')':
			if parens > 0 {
				parens--
			}
		case parens > 0:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanToken filters one whitespace-separated token down to a SAN move.
// Glued move numbers ("12.e4", "12...Nf6") are peeled off.
func sanToken(tok string) (string, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" || isResultToken(tok) || nagPattern.MatchString(tok) || moveNumberPattern.MatchString(tok) {
		return "", false
	}
	if i := strings.LastIndexByte(tok, '.'); i >= 0 && moveNumberPattern.MatchString(tok[:i+1]) {
		tok = tok[i+1:]
		if tok == "" {
			return "", false
		}
	}
	return tok, true
}

func isResultToken(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	}
	return false
}
