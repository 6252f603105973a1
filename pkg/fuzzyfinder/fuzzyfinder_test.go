package fuzzyfinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankFind(t *testing.T) {
	keys := []string{"Pepperoni", "Mushroom", "Peppers", "Olive"}

	ranks := RankFind(keys, "pep")
	if len(ranks) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(ranks))
	}
	for _, r := range ranks {
		assert.Contains(t, []string{"Pepperoni", "Peppers"}, r.Target)
	}
	assert.Equal(t, "Peppers", ranks[0].Target, "closest match first")
	assert.Equal(t, 2, ranks[0].OriginalIndex)
}

func TestRankFindNoMatch(t *testing.T) {
	ranks := RankFind([]string{"first", "second"}, "zzz")
	assert.Empty(t, ranks)
}

func TestMatchIndexes(t *testing.T) {
	keys := []string{"Pepperoni", "Mushroom", "Peppers", "Olive"}

	assert.Equal(t, []int{0, 1, 2, 3}, MatchIndexes(keys, ""))
	assert.Equal(t, []int{0, 2}, MatchIndexes(keys, "PEP"))
	assert.Empty(t, MatchIndexes(keys, "anchovy"))
}
