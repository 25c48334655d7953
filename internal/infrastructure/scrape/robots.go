package scrape

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const robotsTimeout = 3 * time.Second

// RobotsCache answers robots.txt queries with one fetch per host. A host
// whose robots.txt cannot be retrieved is treated as disallowing, since
// the tier-2 path is expensive enough that guessing is not worth it.
type RobotsCache struct {
	client    *http.Client
	userAgent string

	mu      sync.Mutex
	entries map[string]*robotstxt.RobotsData // nil entry means fetch failed
}

// NewRobotsCache wires an HTTP client; the default uses a short timeout so
// a slow robots endpoint cannot stall the pipeline.
func NewRobotsCache(client *http.Client, userAgent string) *RobotsCache {
	if client == nil {
		client = &http.Client{Timeout: robotsTimeout}
	}
	if userAgent == "" {
		userAgent = "countryrisk"
	}
	return &RobotsCache{
		client:    client,
		userAgent: userAgent,
		entries:   make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the user agent may fetch the given URL.
func (rc *RobotsCache) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}

	data := rc.lookup(ctx, parsed.Scheme+"://"+parsed.Host)
	if data == nil {
		return false
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return data.FindGroup(rc.userAgent).Test(path)
}

func (rc *RobotsCache) lookup(ctx context.Context, origin string) *robotstxt.RobotsData {
	rc.mu.Lock()
	data, ok := rc.entries[origin]
	rc.mu.Unlock()
	if ok {
		return data
	}

	data = rc.fetch(ctx, origin)

	rc.mu.Lock()
	rc.entries[origin] = data
	rc.mu.Unlock()
	return data
}

func (rc *RobotsCache) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}
