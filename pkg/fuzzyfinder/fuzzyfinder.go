package fuzzyfinder

import (
	"slices"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type Rank struct {
	// Source is used as the source for matching.
	Source string

	// Target is the word matched against.
	Target string

	// Distance is the Levenshtein distance between Source and Target.
	Distance int

	// Location of Target in original list
	OriginalIndex int
}

// RankFind matches case-insensitively and returns ranks sorted by distance.
func RankFind(keys []string, query string) []Rank {
	ranksLib := fuzzy.RankFindFold(query, keys)
	ranks := make([]Rank, ranksLib.Len())
	for i, r := range ranksLib {
		ranks[i] = Rank{
			Source:        r.Source,
			Target:        r.Target,
			Distance:      r.Distance,
			OriginalIndex: r.OriginalIndex,
		}
	}
	slices.SortStableFunc(ranks, func(a, b Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})
	return ranks
}

// MatchIndexes returns the indexes of keys matching query in their original
// order. An empty query matches everything.
func MatchIndexes(keys []string, query string) []int {
	if query == "" {
		out := make([]int, len(keys))
		for i := range keys {
			out[i] = i
		}
		return out
	}
	ranks := RankFind(keys, query)
	out := make([]int, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.OriginalIndex)
	}
	slices.Sort(out)
	return out
}
