package search

import (
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultSuggestions is how many names a lookup miss offers.
const DefaultSuggestions = 5

// SuggestNames returns up to limit names close to target. Names containing
// target as a case-insensitive subsequence come first, ordered by edit
// distance; the rest are filled from names whose Jaro-Winkler similarity
// reaches FuzzyThreshold.
func SuggestNames(target string, names []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestions
	}
	target = Normalize(target)
	if target == "" || len(names) == 0 {
		return []string{}
	}

	ranks := fuzzy.RankFindFold(target, names)
	sort.Sort(ranks)

	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, r := range ranks {
		if len(out) == limit {
			return out
		}
		out = append(out, r.Target)
		seen[r.Target] = struct{}{}
	}

	type scored struct {
		name string
		sim  float64
	}
	jw := metrics.NewJaroWinkler()
	var similar []scored
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		if sim := strutil.Similarity(target, Normalize(name), jw); sim >= FuzzyThreshold {
			similar = append(similar, scored{name: name, sim: sim})
		}
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].sim != similar[j].sim {
			return similar[i].sim > similar[j].sim
		}
		return similar[i].name < similar[j].name
	})
	for _, s := range similar {
		if len(out) == limit {
			break
		}
		out = append(out, s.name)
	}
	return out
}
