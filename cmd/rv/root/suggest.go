package root

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// closest returns the candidate nearest to input, or "" when nothing is close enough.
func closest(input string, candidates []string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	best, bestDist := "", -1
	for _, cand := range candidates {
		c := strings.ToLower(cand)
		if strings.HasPrefix(c, input) && len(input) >= 3 {
			return cand
		}
		dist := levenshtein.ComputeDistance(input, c)
		if dist > suggestLimit(len(c)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best
}

func unknownErr(kind, id string, candidates []string) error {
	if s := closest(id, candidates); s != "" {
		return fmt.Errorf("unknown %s %q (did you mean %q?)", kind, id, s)
	}
	return fmt.Errorf("unknown %s %q", kind, id)
}
