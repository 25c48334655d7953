package gnews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestResolvePassesThroughPublisherLinks(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	link := "https://pub.example.com/story"
	if got := r.Resolve(context.Background(), link); got != link {
		t.Fatalf("expected pass-through, got %s", got)
	}
}

func TestResolveEmbeddedURLParam(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	link := "https://news.google.com/articles/x?url=" + url.QueryEscape("https://pub.example.com/story")
	if got := r.Resolve(context.Background(), link); got != "https://pub.example.com/story" {
		t.Fatalf("expected embedded url, got %s", got)
	}
}

func TestResolveMetaRefreshFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta http-equiv="refresh" content="0; url=https://pub.example.com/meta"></head><body></body></html>`)
	}))
	defer server.Close()

	r := newTestResolver(t, server)
	got := r.Resolve(context.Background(), server.URL+"/rss/articles/CBMi")
	if got != "https://pub.example.com/meta" {
		t.Fatalf("expected meta refresh target, got %s", got)
	}
}

func TestResolveAnchorFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="https://news.google.com/more">more</a>
			<a href="/relative">rel</a>
			<a href="https://pub.example.com/anchor">story</a>
		</body></html>`)
	}))
	defer server.Close()

	r := newTestResolver(t, server)
	got := r.Resolve(context.Background(), server.URL+"/rss/articles/CBMi")
	if got != "https://pub.example.com/anchor" {
		t.Fatalf("expected first external anchor, got %s", got)
	}
}

func TestResolveNeverRaises(t *testing.T) {
	t.Parallel()

	r := NewResolver(&http.Client{Timeout: 200 * time.Millisecond})

	inputs := []string{
		"https://news.google.com.invalid/rss/articles/CBMi-unreachable",
		"://not-a-url",
		"",
	}
	for _, in := range inputs {
		if got := r.Resolve(context.Background(), in); got != in {
			t.Fatalf("expected input back for %q, got %q", in, got)
		}
	}
}

func TestParseBatchexecute(t *testing.T) {
	t.Parallel()

	inner := `["garturlres","https://pub.example.com/final",null]`
	outer := fmt.Sprintf(`)]}'

[["wrb.fr","Fbv4je",%q]]`, inner)

	if got := parseBatchexecute(outer); got != "https://pub.example.com/final" {
		t.Fatalf("unexpected final url: %q", got)
	}

	if got := parseBatchexecute("not json"); got != "" {
		t.Fatalf("expected empty on malformed body, got %q", got)
	}
}

// newTestResolver treats the test server's host as the aggregator so the
// wrapper-detection path exercises against local fixtures.
func newTestResolver(t *testing.T, server *httptest.Server) *Resolver {
	t.Helper()
	r := NewResolver(server.Client())
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	r.host = u.Host
	return r
}
