package domain

import "strings"

// Style is the visual marker style of a facility.
type Style string

const (
	StyleDefault   Style = "default"
	StyleFull      Style = "full"
	StyleAvailable Style = "available"
)

var (
	fullTokens      = []string{"×", "満"}
	availableTokens = []string{"午前", "午後", "○", "〇", "◯"}
)

// ClassifyStatus maps a raw status value to a style. Full tokens are checked
// first, so a value with both kinds of token is full.
func ClassifyStatus(status string) Style {
	v := strings.TrimSpace(status)
	if v == "" {
		return StyleDefault
	}
	if containsAny(v, fullTokens) {
		return StyleFull
	}
	if containsAny(v, availableTokens) {
		return StyleAvailable
	}
	return StyleDefault
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
