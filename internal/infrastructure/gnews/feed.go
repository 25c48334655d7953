// Package gnews retrieves country news from the Google News RSS search
// endpoint and resolves its aggregator links to publisher URLs.
package gnews

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	gofeedrss "github.com/mmcdole/gofeed/rss"

	"countryrisk/internal/domain"
	"countryrisk/internal/ports"
)

const (
	searchBase      = "https://news.google.com/rss/search"
	userAgent       = "Mozilla/5.0 (compatible; countryrisk/1.0)"
	maxSnippetWords = 240
)

var (
	anchorExpr     = regexp.MustCompile(`(?is)<a[^>]*>.*?</a>`)
	tagExpr        = regexp.MustCompile(`<[^>]+>`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// Client implements ports.NewsSearcher against Google News RSS search.
type Client struct {
	client *http.Client
	parser *gofeedrss.Parser
	base   string
	lang   string
	region string
}

var _ ports.NewsSearcher = (*Client)(nil)

// NewClient wires an HTTP client; lang/region parametrize the feed locale.
func NewClient(client *http.Client, lang, region string) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if lang == "" {
		lang = "en"
	}
	if region == "" {
		region = "US"
	}
	return &Client{
		client: client,
		parser: &gofeedrss.Parser{},
		base:   searchBase,
		lang:   lang,
		region: region,
	}
}

// Search issues one RSS search query and maps the feed items to articles.
// RelevanceScore is left unset; scoring happens downstream.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.ArticleItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google news rss %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.ArticleItem, 0, maxResults)
	for _, entry := range feed.Items {
		if maxResults > 0 && len(items) >= maxResults {
			break
		}
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}

		var published time.Time
		if entry.PubDateParsed != nil {
			published = entry.PubDateParsed.UTC()
		}

		items = append(items, domain.ArticleItem{
			Link:        link,
			Title:       strings.TrimSpace(entry.Title),
			Source:      sourceName(entry),
			PublishedAt: published,
			Summary:     clipWords(stripHTML(entry.Description), maxSnippetWords),
		})
	}

	return items, nil
}

func (c *Client) searchURL(query string) string {
	hl := fmt.Sprintf("%s-%s", c.lang, c.region)
	ceid := fmt.Sprintf("%s:%s", c.region, c.lang)

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", hl)
	params.Set("gl", c.region)
	params.Set("ceid", ceid)
	return c.base + "?" + params.Encode()
}

func sourceName(entry *gofeedrss.Item) string {
	if entry.Source != nil && strings.TrimSpace(entry.Source.Title) != "" {
		return strings.TrimSpace(entry.Source.Title)
	}
	// Google News titles end with " - Publisher".
	if idx := strings.LastIndex(entry.Title, " - "); idx > 0 {
		return strings.TrimSpace(entry.Title[idx+3:])
	}
	return ""
}

// stripHTML removes anchors, remaining tags, and entity escapes, then
// collapses whitespace. The RSS description embeds the item link as HTML.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	s = anchorExpr.ReplaceAllString(s, "")
	s = tagExpr.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(s, " "))
}

func clipWords(s string, maxWords int) string {
	if s == "" || maxWords <= 0 {
		return ""
	}
	parts := strings.Fields(s)
	if len(parts) <= maxWords {
		return strings.TrimSpace(s)
	}
	return strings.Join(parts[:maxWords], " ")
}
