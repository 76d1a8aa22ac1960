package news

import "sort"

// Merge flattens per-source item lists into one sequence sorted by
// publish time descending (ties by ID, so output is deterministic) and
// deduplicated by link. Because the sort runs first, the surviving
// instance of a link republished across sources is always the most
// recent one.
func Merge(lists ...[]Item) []Item {
	var all []Item
	for _, l := range lists {
		all = append(all, l...)
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].Published.Equal(all[j].Published) {
			return all[i].Published.After(all[j].Published)
		}
		return all[i].ID < all[j].ID
	})

	seen := make(map[string]struct{}, len(all))
	out := make([]Item, 0, len(all))
	for _, it := range all {
		if _, ok := seen[it.Link]; ok {
			continue
		}
		seen[it.Link] = struct{}{}
		out = append(out, it)
	}
	return out
}
