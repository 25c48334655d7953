package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"countryrisk/internal/domain"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestExtractThumbnailPrefersMeta(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><head>
		<meta property="og:image" content="/img/og.jpg">
		<link rel="image_src" href="/img/link.jpg">
	</head><body><article><img src="/img/body.jpg"></article></body></html>`)

	got := extractThumbnail(doc, mustURL(t, "https://pub.example.com/story"))
	if got != "https://pub.example.com/img/og.jpg" {
		t.Fatalf("expected og:image to win, got %q", got)
	}
}

func TestExtractThumbnailJSONLDGraph(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><head>
		<script type="application/ld+json">
		{"@graph":[{"@type":"WebSite"},{"@type":"NewsArticle","image":{"url":"https://cdn.example.com/ld.jpg"}}]}
		</script>
	</head><body></body></html>`)

	got := extractThumbnail(doc, mustURL(t, "https://pub.example.com/story"))
	if got != "https://cdn.example.com/ld.jpg" {
		t.Fatalf("expected graph image, got %q", got)
	}
}

func TestExtractThumbnailSrcsetAndPixelSkip(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><body><article>
		<img src="https://cdn.example.com/pixel/track.gif">
		<img srcset="/small.jpg 320w, /large.jpg 1280w, /mid.jpg 640w">
	</article></body></html>`)

	got := extractThumbnail(doc, mustURL(t, "https://pub.example.com/story"))
	if got != "https://pub.example.com/large.jpg" {
		t.Fatalf("expected widest srcset candidate, got %q", got)
	}
}

func TestExtractThumbnailLazyAttr(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><body><article>
		<img data-lazy-src="/lazy.jpg">
	</article></body></html>`)

	got := extractThumbnail(doc, mustURL(t, "https://pub.example.com/story"))
	if got != "https://pub.example.com/lazy.jpg" {
		t.Fatalf("expected lazy attribute fallback, got %q", got)
	}
}

func TestExtractMainTextPicksDensestContainer(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Inflation expectations moved sharply again today. ", 6)
	doc := docFrom(t, fmt.Sprintf(`<html><body>
		<nav><p>%s</p></nav>
		<div class="sidebar"><p>short note</p></div>
		<div class="article-body"><p>%s</p><p>%s</p><p>tiny</p></div>
	</body></html>`, long, long, long))

	got := extractMainText(doc)
	if !strings.Contains(got, "Inflation expectations") {
		t.Fatalf("expected article text, got %q", got)
	}
	if strings.Contains(got, "short note") || strings.Contains(got, "tiny") {
		t.Fatalf("expected short paragraphs dropped, got %q", got)
	}
}

func TestExtractMainTextRemovesChrome(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("The central bank kept its policy rate unchanged. ", 4)
	doc := docFrom(t, fmt.Sprintf(`<html><body>
		<script>var x = "should not leak into text output at all";</script>
		<article><p>%s</p></article>
	</body></html>`, long))

	got := extractMainText(doc)
	if strings.Contains(got, "should not leak") {
		t.Fatalf("script text leaked: %q", got)
	}
	if !strings.Contains(got, "policy rate unchanged") {
		t.Fatalf("expected body text, got %q", got)
	}
}

func TestLeadSummaryWordBudget(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := 0; i < 80; i++ {
		sb.WriteString(fmt.Sprintf("Sentence number %d has exactly six words. ", i))
	}

	got := leadSummary(sb.String(), summaryWords)
	words := len(strings.Fields(got))
	if words == 0 || words > summaryWords {
		t.Fatalf("expected 1..%d words, got %d", summaryWords, words)
	}
	if !strings.HasPrefix(got, "Sentence number 0") {
		t.Fatalf("expected lead sentences first, got %q", got)
	}
}

func TestNeedsSummary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		summary string
		source  string
		want    bool
	}{
		{"", "Reuters", true},
		{"short one", "Reuters", true},
		{"Reuters", "Reuters", true},
		{"A perfectly serviceable summary that runs past eight words easily.", "Reuters", false},
	}
	for _, tc := range cases {
		if got := needsSummary(tc.summary, tc.source); got != tc.want {
			t.Fatalf("needsSummary(%q) = %v, want %v", tc.summary, got, tc.want)
		}
	}
}

func TestEnrichFillsMissingFields(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("Officials signalled further fiscal tightening is coming soon. ", 5)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
			<meta property="og:image" content="/lead.jpg">
		</head><body><article><p>%s</p></article></body></html>`, body)
	}))
	defer server.Close()

	s := NewSimpleScraper(server.Client())
	item := domain.ArticleItem{Link: server.URL + "/story", Title: "T", Source: "Example"}
	s.Enrich(context.Background(), &item)

	if item.Image != server.URL+"/lead.jpg" {
		t.Fatalf("expected thumbnail, got %q", item.Image)
	}
	if !strings.Contains(item.Summary, "fiscal tightening") {
		t.Fatalf("expected lead summary, got %q", item.Summary)
	}
	if !strings.Contains(item.Content, "fiscal tightening") {
		t.Fatalf("expected content, got %q", item.Content)
	}
}

func TestEnrichKeepsGoodSummary(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta property="og:image" content="/x.jpg"></head>
			<body><article><p>A totally different body paragraph long enough to be kept around here.</p></article></body></html>`)
	}))
	defer server.Close()

	existing := "An existing summary with more than eight words that should stay put."
	s := NewSimpleScraper(server.Client())
	item := domain.ArticleItem{Link: server.URL + "/story", Summary: existing, Source: "Example"}
	s.Enrich(context.Background(), &item)

	if item.Summary != existing {
		t.Fatalf("expected summary preserved, got %q", item.Summary)
	}
}

func TestEnrichSurvivesFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	s := NewSimpleScraper(server.Client())
	item := domain.ArticleItem{Link: server.URL + "/story", Summary: "s", Source: "Example"}
	before := item
	s.Enrich(context.Background(), &item)

	if item != before {
		t.Fatalf("expected item untouched on fetch failure")
	}

	// Non-HTTP links are skipped outright.
	odd := domain.ArticleItem{Link: "ftp://example.com/x"}
	s.Enrich(context.Background(), &odd)
	if odd.Content != "" {
		t.Fatal("expected non-http link skipped")
	}
}
