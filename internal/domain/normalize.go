package domain

import "strings"

// fullWidthOffset is the distance between U+FF10..U+FF19 and '0'..'9'.
const fullWidthOffset = '０' - '0'

// NormalizeIdentifier canonicalizes a facility number so rows from different
// datasets can be matched: full-width digits are folded to ASCII, blanks are
// trimmed and leading zeros are stripped. An all-zero value keeps its zeros
// rather than collapsing to "".
func NormalizeIdentifier(raw string) string {
	folded := strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - fullWidthOffset
		}
		return r
	}, raw)

	trimmed := strings.TrimSpace(folded)

	// Stripping zeros can expose inner blanks ("0 7" -> " 7"), so repeat
	// until stable; this keeps the function idempotent.
	key := trimmed
	for {
		next := strings.TrimSpace(strings.TrimLeft(key, "0"))
		if next == key {
			break
		}
		key = next
	}
	if key == "" {
		return trimmed
	}
	return key
}
