package service

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// suggestion cutoff: beyond this edit distance a match is noise
const maxSuggestDistance = 2

// SuggestTicker returns the closest known ticker when input matches nothing
// exactly, or "" when nothing is plausibly close. Used by the dashboard to
// offer a correction after a filter returns zero rows.
func SuggestTicker(input string, known []string) string {
	needle := strings.ToUpper(strings.TrimSpace(input))
	if needle == "" {
		return ""
	}

	best := ""
	bestDist := maxSuggestDistance + 1
	for _, candidate := range known {
		c := strings.ToUpper(strings.TrimSpace(candidate))
		if c == "" {
			continue
		}
		if c == needle {
			// input is already a known ticker; nothing to correct
			return ""
		}
		d := levenshtein.ComputeDistance(needle, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
