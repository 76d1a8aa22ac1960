// Package news defines the canonical aggregated item and the
// normalization and merge steps that produce it from raw feed entries.
package news

import (
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"time"
)

// Item is one normalized news entry. Link (query string stripped) is
// the deduplication key; ID is derived from it so identity survives
// re-fetches.
type Item struct {
	ID              string
	Title           string
	Description     string
	OrigTitle       string
	OrigDescription string
	Link            string
	Source          string
	Published       time.Time
	Image           string
	Accent          string
}

// accentPalette is the fixed set of accent colors items hash into.
var accentPalette = [...]string{
	"#d62828",
	"#003049",
	"#f77f00",
	"#2a9d8f",
	"#780116",
	"#0a2463",
}

// itemID derives the stable identity from the canonical link.
func itemID(link string) string {
	sum := md5.Sum([]byte(link))
	return fmt.Sprintf("%x", sum)
}

// accent picks a deterministic palette color for the seed, so the same
// item renders with the same accent across refreshes and processes.
func accent(seed string) string {
	sum := sha1.Sum([]byte(seed))
	return accentPalette[int(sum[0])%len(accentPalette)]
}

// SearchFields returns the text fields that feed the search index.
func (it Item) SearchFields() []string {
	return []string{it.Title, it.Description, it.OrigTitle, it.OrigDescription, it.Source}
}

// Age renders the item's age relative to now for list output.
func (it Item) Age(now time.Time) string {
	d := now.Sub(it.Published)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours())/24)
	}
}
