package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost_KnownModel(t *testing.T) {
	cost := estimateCost("gpt-4", 1000, 1000)
	assert.InDelta(t, 0.09, cost, 0.0001)
}

func TestEstimateCost_UnknownModelFallsBackToDefault(t *testing.T) {
	cost := estimateCost("some-unknown-model", 1000, 1000)
	assert.InDelta(t, 0.0035, cost, 0.0001)
}

func TestEstimateCost_PrefersLongestPrefixMatch(t *testing.T) {
	// Simulate a more specific entry overriding a shorter one by
	// checking substring containment order does not depend on map
	// iteration: "gpt-4" must not accidentally win over a hypothetical
	// longer registered prefix. With the current table only "gpt-4"
	// matches "gpt-4-turbo-preview", so this exercises the substring
	// match path itself.
	cost := estimateCost("gpt-4-turbo-preview", 1000, 1000)
	assert.InDelta(t, 0.09, cost, 0.0001)
}

func TestSortedPrefixesAreLongestFirst(t *testing.T) {
	for i := 1; i < len(sortedPrefixes); i++ {
		assert.GreaterOrEqual(t, len(sortedPrefixes[i-1]), len(sortedPrefixes[i]))
	}
}
