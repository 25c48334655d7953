package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestRobotsAllowedAndDenied(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	}))
	defer server.Close()

	rc := NewRobotsCache(server.Client(), "countryrisk")
	if !rc.Allowed(context.Background(), server.URL+"/news/story") {
		t.Fatal("expected allowed path")
	}
	if rc.Allowed(context.Background(), server.URL+"/private/story") {
		t.Fatal("expected disallowed path")
	}
}

func TestRobotsFetchFailureDenies(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	rc := NewRobotsCache(server.Client(), "countryrisk")
	if rc.Allowed(context.Background(), server.URL+"/anything") {
		t.Fatal("expected conservative denial when robots.txt is unavailable")
	}
}

func TestRobotsCachesPerHost(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	}))
	defer server.Close()

	rc := NewRobotsCache(server.Client(), "countryrisk")
	for i := 0; i < 5; i++ {
		rc.Allowed(context.Background(), fmt.Sprintf("%s/story/%d", server.URL, i))
	}
	if got := fetches.Load(); got != 1 {
		t.Fatalf("expected a single robots fetch per host, got %d", got)
	}
}

func TestRobotsRejectsUnparseableURL(t *testing.T) {
	t.Parallel()

	rc := NewRobotsCache(nil, "countryrisk")
	if rc.Allowed(context.Background(), "://bad") {
		t.Fatal("expected denial for unparseable URL")
	}
}
