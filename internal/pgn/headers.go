// Package pgn extracts header tags and mainline moves from raw PGN text.
// It is a scanner, not a validator: malformed input yields empty results.
package pgn

import "regexp"

// Tag names read by the ingest and query paths.
const (
	TagECO     = "ECO"
	TagOpening = "Opening"
	TagResult  = "Result"
	TagWhite   = "White"
	TagBlack   = "Black"
)

var headerPattern = regexp.MustCompile(`(?m)^\[(\S+)\s+"(.*?)"\]`)

// Headers returns the tag pairs of the PGN header section. A tag repeated
// later in the text wins, as it would in a sequential read.
func Headers(raw string) map[string]string {
	out := make(map[string]string)
	for _, m := range headerPattern.FindAllStringSubmatch(raw, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// Header returns one tag value, or "" when the tag is absent.
func Header(raw, tag string) string {
	for _, m := range headerPattern.FindAllStringSubmatch(raw, -1) {
		if m[1] == tag {
			return m[2]
		}
	}
	return ""
}
