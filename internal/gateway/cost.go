package gateway

import (
	"math"
	"sort"
	"strings"
)

// rate holds per-1k-token pricing for a model-name prefix.
type rate struct {
	prompt     float64
	completion float64
}

// pricingTable maps a model-name prefix to its per-1k-token rates,
// transliterated from original_source/src/aicp/gateway/gateway.py's
// pricing dict.
var pricingTable = map[string]rate{
	"gpt-4":         {prompt: 0.03, completion: 0.06},
	"gpt-3.5-turbo": {prompt: 0.0015, completion: 0.002},
	"gemini-pro":    {prompt: 0.00025, completion: 0.0005},
}

var sortedPrefixes = func() []string {
	prefixes := make([]string, 0, len(pricingTable))
	for k := range pricingTable {
		prefixes = append(prefixes, k)
	}
	// Longest prefix first, so a more specific name (e.g. a future
	// "gpt-4-turbo" entry) always wins over a shorter one (e.g. "gpt-4")
	// regardless of map iteration or table-definition order. Fixes the
	// ambiguity spec.md §9 flags in the original's
	// `next(k for k in pricing if k in model)` lookup.
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return prefixes
}()

// estimateCost returns the estimated USD cost of a completion given the
// model name and token counts, rounded to 6 decimal places per the
// original's round(cost, 6). Unknown models fall back to the
// "gpt-3.5-turbo" rate, matching the original's default.
func estimateCost(model string, promptTokens, completionTokens int) float64 {
	r, ok := pricingTable["gpt-3.5-turbo"]
	for _, prefix := range sortedPrefixes {
		if strings.Contains(model, prefix) {
			r = pricingTable[prefix]
			ok = true
			break
		}
	}
	_ = ok
	cost := (float64(promptTokens)/1000.0)*r.prompt + (float64(completionTokens)/1000.0)*r.completion
	return math.Round(cost*1e6) / 1e6
}
