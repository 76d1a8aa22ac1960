package news

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// Normalize converts one raw feed entry into an Item. The second return
// is false when the entry is unusable (no link) and should be skipped;
// malformed entries never fail the rest of their feed.
func Normalize(source string, entry *gofeed.Item, now time.Time) (Item, bool) {
	if entry == nil {
		return Item{}, false
	}

	link := canonicalLink(entry.Link)
	if link == "" {
		return Item{}, false
	}

	rawSummary := entry.Description
	if rawSummary == "" {
		rawSummary = entry.Content
	}

	title := CleanHTML(entry.Title)
	desc := CleanHTML(rawSummary)

	published := now.UTC()
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		published = entry.UpdatedParsed.UTC()
	}

	return Item{
		ID:              itemID(link),
		Title:           title,
		Description:     desc,
		OrigTitle:       title,
		OrigDescription: desc,
		Link:            link,
		Source:          source,
		Published:       published,
		Image:           firstImage(entry, rawSummary),
		Accent:          accent(link),
	}, true
}

// canonicalLink strips the query string; the remainder is the dedup key.
func canonicalLink(raw string) string {
	link := strings.TrimSpace(raw)
	link, _, _ = strings.Cut(link, "?")
	return link
}

// firstImage resolves a representative illustration by priority: media
// extension URL, feed-declared image, image-typed enclosure, then the
// first <img src> in the raw description markup.
func firstImage(entry *gofeed.Item, rawDesc string) string {
	if media, ok := entry.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, e := range media[key] {
				if u := e.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enc := range entry.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image") && enc.URL != "" {
			return enc.URL
		}
	}
	if rawDesc != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawDesc))
		if err == nil {
			if src, ok := doc.Find("img[src]").First().Attr("src"); ok && src != "" {
				return src
			}
		}
	}
	return ""
}

// CleanHTML strips markup from raw, joining text runs with single
// spaces. Input that fails to parse is returned with whitespace
// collapsed.
func CleanHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return collapse(raw)
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return collapse(b.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
