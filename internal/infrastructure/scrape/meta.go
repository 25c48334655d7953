package scrape

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleMeta is what tier 2 recovers from a rendered page: enough to
// backfill presentation fields on an already-selected article.
type articleMeta struct {
	Title       string
	Description string
	Image       string
	Published   string
	SourceName  string
}

// jsonLDDoc covers the NewsArticle/Article shapes publishers embed.
// Image is left raw since it appears as a string, an object, or a list.
type jsonLDDoc struct {
	Type          any             `json:"@type"`
	Graph         []jsonLDDoc     `json:"@graph"`
	Headline      string          `json:"headline"`
	Description   string          `json:"description"`
	DatePublished string          `json:"datePublished"`
	Image         json.RawMessage `json:"image"`
	Publisher     struct {
		Name string `json:"name"`
	} `json:"publisher"`
}

func jsonLDImage(doc *goquery.Document, base *url.URL) string {
	for _, ld := range jsonLDDocs(doc) {
		if u := absolutize(jsonLDImageURL(ld.Image), base); u != "" {
			return u
		}
	}
	return ""
}

// jsonLDDocs flattens every ld+json script on the page, expanding @graph
// blocks and skipping anything that fails to parse.
func jsonLDDocs(doc *goquery.Document) []jsonLDDoc {
	var out []jsonLDDoc
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var single jsonLDDoc
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			out = append(out, flattenGraph(single)...)
			return
		}
		var many []jsonLDDoc
		if err := json.Unmarshal([]byte(raw), &many); err == nil {
			for _, d := range many {
				out = append(out, flattenGraph(d)...)
			}
		}
	})
	return out
}

func flattenGraph(d jsonLDDoc) []jsonLDDoc {
	if len(d.Graph) == 0 {
		return []jsonLDDoc{d}
	}
	out := make([]jsonLDDoc, 0, len(d.Graph)+1)
	out = append(out, d)
	for _, g := range d.Graph {
		out = append(out, flattenGraph(g)...)
	}
	return out
}

func jsonLDImageURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.URL != "" {
		return strings.TrimSpace(obj.URL)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, entry := range list {
			if u := jsonLDImageURL(entry); u != "" {
				return u
			}
		}
	}
	return ""
}

// firstMeta returns the first non-empty content among the given meta tag
// selectors, tried in order.
func firstMeta(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		content, ok := doc.Find(sel).First().Attr("content")
		if ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

// extractArticleMeta pulls og/twitter tags first, falls back to JSON-LD,
// and nudges the published date from a <time datetime> element when the
// structured channels are silent.
func extractArticleMeta(doc *goquery.Document, base *url.URL) articleMeta {
	meta := articleMeta{
		Title: firstMeta(doc,
			`meta[property='og:title']`,
			`meta[name='twitter:title']`),
		Description: firstMeta(doc,
			`meta[property='og:description']`,
			`meta[name='description']`,
			`meta[name='twitter:description']`),
		Image: absolutize(firstMeta(doc,
			`meta[property='og:image']`,
			`meta[property='og:image:secure_url']`,
			`meta[name='twitter:image']`,
			`meta[name='twitter:image:src']`), base),
		Published: firstMeta(doc,
			`meta[property='article:published_time']`,
			`meta[name='article:published_time']`,
			`meta[itemprop='datePublished']`,
			`meta[name='date']`),
		SourceName: firstMeta(doc,
			`meta[property='og:site_name']`),
	}

	for _, ld := range jsonLDDocs(doc) {
		if meta.Title == "" {
			meta.Title = ld.Headline
		}
		if meta.Description == "" {
			meta.Description = ld.Description
		}
		if meta.Published == "" {
			meta.Published = ld.DatePublished
		}
		if meta.Image == "" {
			meta.Image = absolutize(jsonLDImageURL(ld.Image), base)
		}
		if meta.SourceName == "" {
			meta.SourceName = ld.Publisher.Name
		}
	}

	if meta.Published == "" {
		if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			meta.Published = strings.TrimSpace(dt)
		}
	}
	if meta.Title == "" {
		meta.Title = cleanSpace(doc.Find("title").First().Text())
	}
	return meta
}
