package alerts

import "sort"

// Rank collapses items sharing (severity, message) and orders the result
// most urgent first.
//
// On a duplicate key the item with the later Timestamp is kept; equal
// timestamps keep the entry seen first. Within one severity the output
// preserves the first-occurrence order of each key. Rank does not modify
// its input and Rank(Rank(x)) == Rank(x).
func Rank(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}

	index := make(map[key]int, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		k := it.key()
		pos, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, it)
			continue
		}
		if it.Timestamp.After(out[pos].Timestamp) {
			out[pos] = it
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return SeverityRank(out[i].Severity) < SeverityRank(out[j].Severity)
	})
	return out
}

// CountBySeverity tallies a list by severity.
func CountBySeverity(items []Item) map[Severity]int {
	counts := map[Severity]int{
		SeverityCritical: 0,
		SeverityWarning:  0,
		SeverityNormal:   0,
	}
	for _, it := range items {
		counts[it.Severity]++
	}
	return counts
}
