package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"countryrisk/internal/ports"
	"countryrisk/internal/retry"
)

const (
	renderConnectTimeout = 5 * time.Second
	renderReadTimeout    = 20 * time.Second
	renderBodyCap        = 4 << 20
)

// ErrRobotsDisallowed marks a URL the target host's robots.txt forbids.
var ErrRobotsDisallowed = errors.New("robots.txt disallows fetch")

// originError carries the origin site's status as reported by the render
// service envelope. 4xx statuses are permanent and never retried.
type originError struct {
	status int
}

func (e *originError) Error() string {
	return fmt.Sprintf("origin returned %d", e.status)
}

func (e *originError) permanent() bool {
	return e.status >= 400 && e.status < 500
}

// RenderClient is the tier-2 fetcher: it proxies the article URL through a
// JavaScript-rendering fetch API and extracts page metadata from the
// rendered HTML. Used only for selected articles still missing an image.
type RenderClient struct {
	endpoint string
	token    string
	pageWait int
	ajaxWait int
	client   *http.Client
	robots   *RobotsCache
	policy   retry.Policy
}

var _ ports.RenderFetcher = (*RenderClient)(nil)

// NewRenderClient builds a client for a crawlbase-style render API.
// pageWait and ajaxWait are milliseconds passed through to the service.
func NewRenderClient(endpoint, token string, pageWait, ajaxWait int, robots *RobotsCache) *RenderClient {
	return &RenderClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		pageWait: pageWait,
		ajaxWait: ajaxWait,
		robots:   robots,
		client: &http.Client{
			Timeout: renderReadTimeout,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: renderConnectTimeout}).DialContext,
				TLSHandshakeTimeout:   renderConnectTimeout,
				ResponseHeaderTimeout: renderReadTimeout,
			},
		},
		policy: retry.Policy{
			MaxAttempts: 2,
			Backoff:     retry.Jittered(400*time.Millisecond, 400*time.Millisecond),
			Retryable: func(err error) bool {
				var oe *originError
				if errors.As(err, &oe) {
					return !oe.permanent()
				}
				return true
			},
		},
	}
}

// FetchMeta renders the article page through the fetch service and returns
// its metadata. The robots.txt of the target host is honored before any
// request leaves.
func (c *RenderClient) FetchMeta(ctx context.Context, rawURL string) (ports.RenderMeta, error) {
	if c.token == "" {
		return ports.RenderMeta{}, errors.New("render token not configured")
	}
	if c.robots != nil && !c.robots.Allowed(ctx, rawURL) {
		return ports.RenderMeta{}, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	var meta ports.RenderMeta
	err := c.policy.Do(ctx, func() error {
		m, err := c.fetchOnce(ctx, rawURL)
		if err != nil {
			return err
		}
		meta = m
		return nil
	})
	if err != nil {
		return ports.RenderMeta{}, err
	}
	return meta, nil
}

func (c *RenderClient) fetchOnce(ctx context.Context, rawURL string) (ports.RenderMeta, error) {
	params := url.Values{}
	params.Set("token", c.token)
	params.Set("url", rawURL)
	params.Set("format", "json")
	params.Set("device", "desktop")
	if c.pageWait > 0 {
		params.Set("page_wait", fmt.Sprintf("%d", c.pageWait))
	}
	if c.ajaxWait > 0 {
		params.Set("ajax_wait", fmt.Sprintf("%d", c.ajaxWait))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/?"+params.Encode(), nil)
	if err != nil {
		return ports.RenderMeta{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ports.RenderMeta{}, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.RenderMeta{}, fmt.Errorf("render service returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, renderBodyCap))
	if err != nil {
		return ports.RenderMeta{}, fmt.Errorf("read render body: %w", err)
	}

	var envelope struct {
		Body           string `json:"body"`
		OriginalStatus int    `json:"original_status"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ports.RenderMeta{}, fmt.Errorf("decode render envelope: %w", err)
	}
	if envelope.OriginalStatus >= 400 {
		return ports.RenderMeta{}, &originError{status: envelope.OriginalStatus}
	}
	if strings.TrimSpace(envelope.Body) == "" {
		return ports.RenderMeta{}, errors.New("render envelope carried empty body")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(envelope.Body))
	if err != nil {
		return ports.RenderMeta{}, fmt.Errorf("parse rendered html: %w", err)
	}

	base, _ := url.Parse(rawURL)
	m := extractArticleMeta(doc, base)
	return ports.RenderMeta{
		Title:        m.Title,
		Description:  m.Description,
		Image:        m.Image,
		PublishedAt:  m.Published,
		SourceDomain: sourceDomain(rawURL),
	}, nil
}

// sourceDomain reduces a URL to its bare host for display.
func sourceDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
