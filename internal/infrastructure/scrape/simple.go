// Package scrape enriches articles with thumbnails, body text, and lead
// summaries. Tier 1 is a single plain GET per article; tier 2 escalates
// the selected few through a rendering-capable fetch service.
package scrape

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"countryrisk/internal/domain"
	"countryrisk/internal/ports"
)

const (
	simpleUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36"

	summaryWords    = 160
	summaryCharCap  = 2000
	contentCharCap  = 24000
	minParagraphLen = 40
	minSummaryWords = 8
)

var (
	removals       = []string{"script", "style", "noscript", "iframe", "svg", "footer", "header", "nav", "aside", "form"}
	containerHints = []string{"article", "content", "story", "post", "entry", "body", "read", "main", "text"}

	metaImageKeys = [][2]string{
		{"property", "og:image"},
		{"property", "og:image:secure_url"},
		{"property", "og:image:url"},
		{"name", "twitter:image"},
		{"name", "twitter:image:src"},
		{"itemprop", "image"},
		{"name", "parsely-image"},
	}

	imgAttrCandidates = []string{"src", "data-src", "data-original", "data-lazy-src", "data-image", "data-thumb"}

	spaceExpr = regexp.MustCompile(`\s+`)
)

// SimpleScraper is the tier-1 enricher: one GET per article, heuristic
// extraction, and graceful degradation on every failure.
type SimpleScraper struct {
	client *http.Client
}

var _ ports.Enricher = (*SimpleScraper)(nil)

// NewSimpleScraper wires an HTTP client; the default follows redirects
// with a bounded timeout.
func NewSimpleScraper(client *http.Client) *SimpleScraper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SimpleScraper{client: client}
}

// Enrich fills the item's image, content, and summary from a single fetch
// of its resolved URL. The existing summary is replaced only when it is
// clearly low quality: absent, shorter than eight words, or identical to
// the source name.
func (s *SimpleScraper) Enrich(ctx context.Context, item *domain.ArticleItem) {
	link := item.URL()
	if !strings.HasPrefix(link, "http") {
		return
	}

	needSummary := needsSummary(item.Summary, item.Source)
	needImage := item.Image == ""
	if !needSummary && !needImage {
		return
	}

	doc, base, ok := s.fetch(ctx, link)
	if !ok {
		return
	}

	if needImage {
		if thumb := extractThumbnail(doc, base); thumb != "" {
			item.Image = thumb
		}
	}

	text := extractMainText(doc)
	if text != "" {
		item.Content = truncate(text, contentCharCap)
		if needSummary {
			if lead := leadSummary(text, summaryWords); lead != "" {
				item.Summary = lead
			}
		}
	}
}

func (s *SimpleScraper) fetch(ctx context.Context, link string) (*goquery.Document, *url.URL, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, nil, false
	}
	req.Header.Set("User-Agent", simpleUA)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, false
	}

	base := resp.Request.URL // after redirects
	return doc, base, true
}

func needsSummary(summary, source string) bool {
	trimmed := strings.TrimSpace(summary)
	if trimmed == "" {
		return true
	}
	if len(strings.Fields(trimmed)) < minSummaryWords {
		return true
	}
	return strings.EqualFold(trimmed, strings.TrimSpace(source))
}

// extractThumbnail prefers meta tags, then image_src links, then JSON-LD,
// then a meaningful <img> inside a content container.
func extractThumbnail(doc *goquery.Document, base *url.URL) string {
	if u := firstMetaImage(doc, base); u != "" {
		return u
	}
	if u := imageSrcLink(doc, base); u != "" {
		return u
	}
	if u := jsonLDImage(doc, base); u != "" {
		return u
	}
	return firstContentImage(doc, base)
}

func firstMetaImage(doc *goquery.Document, base *url.URL) string {
	for _, key := range metaImageKeys {
		sel := doc.Find("meta[" + key[0] + "='" + key[1] + "']").First()
		if content, ok := sel.Attr("content"); ok {
			if u := absolutize(content, base); u != "" {
				return u
			}
		}
	}
	return ""
}

func imageSrcLink(doc *goquery.Document, base *url.URL) string {
	var found string
	doc.Find("link[rel]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rel, _ := sel.Attr("rel")
		if !strings.Contains(rel, "image_src") {
			return true
		}
		href, _ := sel.Attr("href")
		if u := absolutize(href, base); u != "" {
			found = u
			return false
		}
		return true
	})
	return found
}

func firstContentImage(doc *goquery.Document, base *url.URL) string {
	containers := doc.Find("article, main, [role='main']")
	if containers.Length() == 0 {
		containers = doc.Selection
	}

	var found string
	containers.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if srcset, ok := img.Attr("srcset"); ok {
			if u := bestFromSrcset(srcset, base); u != "" {
				found = u
				return false
			}
		}
		for _, attr := range imgAttrCandidates {
			val, ok := img.Attr(attr)
			if !ok || strings.TrimSpace(val) == "" {
				continue
			}
			u := absolutize(strings.TrimSpace(val), base)
			if u == "" {
				continue
			}
			lower := strings.ToLower(u)
			if strings.Contains(lower, "/pixel") || strings.Contains(lower, "1x1") || strings.Contains(lower, "spacer.gif") {
				continue
			}
			found = u
			return false
		}
		return true
	})
	return found
}

// bestFromSrcset picks the widest candidate from an HTML srcset string.
func bestFromSrcset(srcset string, base *url.URL) string {
	bestWidth := -1
	best := ""
	for _, part := range strings.Split(srcset, ",") {
		bits := strings.Fields(strings.TrimSpace(part))
		if len(bits) == 0 {
			continue
		}
		u := absolutize(bits[0], base)
		if u == "" {
			continue
		}
		width := 0
		if len(bits) > 1 && strings.HasSuffix(bits[1], "w") {
			if w, err := strconv.Atoi(strings.TrimSuffix(bits[1], "w")); err == nil {
				width = w
			}
		}
		if width > bestWidth {
			bestWidth = width
			best = u
		}
	}
	return best
}

// extractMainText strips non-content tags, picks the container with the
// greatest cumulative paragraph length, and keeps paragraphs long enough
// to be prose.
func extractMainText(doc *goquery.Document) string {
	doc.Find(strings.Join(removals, ", ")).Remove()

	container := bestContainer(doc)
	if container == nil {
		container = doc.Selection
	}

	var paragraphs []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := cleanSpace(p.Text())
		if len(text) > minParagraphLen {
			paragraphs = append(paragraphs, text)
		}
	})
	return cleanSpace(strings.Join(paragraphs, " "))
}

func bestContainer(doc *goquery.Document) *goquery.Selection {
	var candidates []*goquery.Selection

	doc.Find("article").Each(func(_ int, sel *goquery.Selection) {
		candidates = append(candidates, sel)
	})
	if main := doc.Find("[role='main']").First(); main.Length() > 0 {
		candidates = append(candidates, main)
	}
	if main := doc.Find("main").First(); main.Length() > 0 {
		candidates = append(candidates, main)
	}
	doc.Find("[class], [id]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		hintText := strings.ToLower(class + " " + id)
		for _, hint := range containerHints {
			if strings.Contains(hintText, hint) {
				candidates = append(candidates, sel)
				return
			}
		}
	})

	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	bestScore := -1
	for _, c := range candidates {
		score := 0
		c.Find("p").Each(func(_ int, p *goquery.Selection) {
			score += len(cleanSpace(p.Text()))
		})
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// leadSummary greedily accumulates sentences up to the word budget, with
// a hard character safety cap.
func leadSummary(text string, maxWords int) string {
	if text == "" {
		return ""
	}

	var out []string
	words := 0
	for _, sentence := range splitSentences(text) {
		n := len(strings.Fields(sentence))
		if n == 0 {
			continue
		}
		if words+n > maxWords && len(out) > 0 {
			break
		}
		out = append(out, sentence)
		words += n
		if words >= maxWords {
			break
		}
	}
	return truncate(cleanSpace(strings.Join(out, " ")), summaryCharCap)
}

// splitSentences breaks on terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if runes[i+1] == ' ' || runes[i+1] == '\t' || runes[i+1] == '\n' {
				sentences = append(sentences, strings.TrimSpace(string(runes[start:i+1])))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

func absolutize(candidate string, base *url.URL) string {
	if candidate == "" {
		return ""
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func cleanSpace(s string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(s, " "))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
