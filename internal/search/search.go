// Package search provides the inverted token index over merged items
// and conjunctive, transliteration-aware querying.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Nixter77/news-agregator/internal/news"
)

var tokenRE = regexp.MustCompile(`[\p{L}\p{N}_-]+`)

// Tokenize lowercases text and splits it into word-character runs
// (letters, digits, underscore, hyphen).
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return tokenRE.FindAllString(strings.ToLower(text), -1)
}

// cyrillicToLatin is the fixed transliteration table used to match
// queries across scripts.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "i", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// Transliterate maps Cyrillic letters in text to their Latin forms,
// leaving everything else untouched.
func Transliterate(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if lat, ok := cyrillicToLatin[r]; ok {
			b.WriteString(lat)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QueryGroups expands a query into one variant group per term: the
// term itself plus its transliteration when that differs. An empty
// result means the query has no terms.
func QueryGroups(query string) [][]string {
	var groups [][]string
	for _, tok := range Tokenize(query) {
		variants := []string{tok}
		if tr := Transliterate(tok); tr != "" && tr != tok {
			variants = append(variants, tr)
		}
		sort.Strings(variants)
		groups = append(groups, variants)
	}
	return groups
}

// Index is an inverted mapping from token to the positions of items
// containing it. It is built wholesale on each refresh and never
// mutated afterwards; the query memo lives and dies with it, which
// makes cache invalidation on rebuild automatic.
type Index struct {
	postings map[string][]int
	size     int

	mu   sync.Mutex
	memo map[string][]int
}

// Build indexes the title, description, pre-translation originals and
// source name of every item.
func Build(items []news.Item) *Index {
	idx := &Index{
		postings: make(map[string][]int),
		size:     len(items),
		memo:     make(map[string][]int),
	}
	for i, it := range items {
		seen := make(map[string]struct{})
		for _, field := range it.SearchFields() {
			for _, tok := range Tokenize(field) {
				if _, ok := seen[tok]; ok {
					continue
				}
				seen[tok] = struct{}{}
				idx.postings[tok] = append(idx.postings[tok], i)
			}
		}
	}
	return idx
}

// Search returns the positions of items matching at least one variant
// of every group, in ascending position order (which preserves the
// underlying item order). No groups means no filtering: all positions
// are returned.
func (idx *Index) Search(groups [][]string) []int {
	if len(groups) == 0 {
		all := make([]int, idx.size)
		for i := range all {
			all[i] = i
		}
		return all
	}

	key := memoKey(groups)
	idx.mu.Lock()
	if cached, ok := idx.memo[key]; ok {
		idx.mu.Unlock()
		return cached
	}
	idx.mu.Unlock()

	var matched map[int]struct{}
	for _, variants := range groups {
		union := make(map[int]struct{})
		for _, v := range variants {
			for _, pos := range idx.postings[v] {
				union[pos] = struct{}{}
			}
		}
		// One term with no matches empties the whole conjunction.
		if len(union) == 0 {
			matched = nil
			break
		}
		if matched == nil {
			matched = union
			continue
		}
		for pos := range matched {
			if _, ok := union[pos]; !ok {
				delete(matched, pos)
			}
		}
	}

	positions := make([]int, 0, len(matched))
	for pos := range matched {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	idx.mu.Lock()
	idx.memo[key] = positions
	idx.mu.Unlock()
	return positions
}

// memoKey canonicalizes the variant groups; groups are already sorted
// by QueryGroups.
func memoKey(groups [][]string) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = strings.Join(g, "|")
	}
	return strings.Join(parts, "\n")
}
