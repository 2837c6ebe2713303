package compactor

import (
	"math"
	"strings"
)

// EstimateTokens approximates the token cost of s for prompt budgeting:
// whitespace-separated words times 1.3, rounded up.
func EstimateTokens(s string) int {
	words := len(strings.Fields(s))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * 1.3))
}
