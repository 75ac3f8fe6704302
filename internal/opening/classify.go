package opening

import "strings"

// Classify maps an ECO code and/or a free-text opening name to exactly one
// family label. The ECO range table is consulted first; when the code is
// absent, malformed, or inside no range, the name rules take over. Always
// returns a label, never an error.
func (c *Catalog) Classify(eco, openingName string) string {
	if key, ok := ecoKey(eco); ok {
		for _, r := range c.ranges {
			if key >= r.from && key <= r.to {
				return r.family
			}
		}
	}
	if strings.TrimSpace(openingName) != "" {
		for _, rule := range c.rules {
			if rule.rx.MatchString(openingName) {
				return rule.family
			}
		}
	}
	return c.fallback
}

// ecoKey converts a three-character ECO code into its ordered numeric key:
// the letter A..E weighs 1000 apiece and the two digits add on top, so
// B90 becomes 2090. Malformed codes report false.
func ecoKey(eco string) (int, bool) {
	eco = strings.TrimSpace(eco)
	if len(eco) != 3 {
		return 0, false
	}
	letter := eco[0]
	if letter >= 'a' && letter <= 'e' {
		letter -= 'a' - 'A'
	}
	if letter < 'A' || letter > 'E' {
		return 0, false
	}
	d1, d2 := eco[1], eco[2]
	if d1 < '0' || d1 > '9' || d2 < '0' || d2 > '9' {
		return 0, false
	}
	base := int(letter-'A') + 1
	return base*1000 + int(d1-'0')*10 + int(d2-'0'), true
}
