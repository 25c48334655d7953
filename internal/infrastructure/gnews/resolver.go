package gnews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"countryrisk/internal/ports"
)

const (
	aggregatorHost  = "news.google.com"
	batchexecuteURL = "https://news.google.com/_/DotsSplashUi/data/batchexecute"
	resolverUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36"
	resolveTimeout  = 8 * time.Second
)

// Resolver unwraps news.google.com wrapper links to the publisher's raw
// article URL. Every failure path returns the input unchanged.
type Resolver struct {
	client *http.Client
	host   string
}

var _ ports.LinkResolver = (*Resolver)(nil)

// NewResolver wires an HTTP client; the default carries a tight timeout
// since resolution runs once per retained article.
func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: resolveTimeout}
	}
	return &Resolver{client: client, host: aggregatorHost}
}

// Resolve applies, in order: an embedded url= query parameter, the
// aggregator's internal redirect RPC, a meta-refresh tag, and the first
// outbound anchor. Links not on the aggregator domain pass through.
func (r *Resolver) Resolve(ctx context.Context, link string) string {
	parsed, err := url.Parse(link)
	if err != nil || !strings.Contains(parsed.Host, r.host) {
		return link
	}

	if direct := parsed.Query().Get("url"); strings.HasPrefix(direct, "http") {
		return direct
	}

	doc, err := r.fetchDocument(ctx, link)
	if err != nil {
		return link
	}

	if final := r.resolveViaRPC(ctx, doc); final != "" {
		return final
	}
	if final := metaRefreshTarget(doc); final != "" {
		return final
	}
	if final := firstExternalAnchor(doc); final != "" {
		return final
	}

	return link
}

func (r *Resolver) fetchDocument(ctx context.Context, link string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", resolverUA)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregator returned %s", resp.Status)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// resolveViaRPC replays the page's hidden data-p payload against the
// DotsSplashUi batchexecute endpoint and digs the final URL out of the
// nested JSON response.
func (r *Resolver) resolveViaRPC(ctx context.Context, doc *goquery.Document) string {
	dataP, ok := doc.Find("c-wiz[data-p]").First().Attr("data-p")
	if !ok || dataP == "" {
		return ""
	}

	var obj []any
	normalized := strings.Replace(dataP, `%.@.`, `["garturlreq",`, 1)
	if err := json.Unmarshal([]byte(normalized), &obj); err != nil || len(obj) < 6 {
		return ""
	}

	// The request payload drops the middle block of the page parameters.
	trimmed := append(append([]any{}, obj[:len(obj)-6]...), obj[len(obj)-2:]...)
	inner, err := json.Marshal(trimmed)
	if err != nil {
		return ""
	}
	envelope, err := json.Marshal([][][]any{{{"Fbv4je", string(inner), "null", "generic"}}})
	if err != nil {
		return ""
	}

	form := url.Values{}
	form.Set("f.req", string(envelope))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, batchexecuteURL, strings.NewReader(form.Encode()))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("User-Agent", resolverUA)

	resp, err := r.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}
	return parseBatchexecute(string(raw))
}

// parseBatchexecute unpacks the anti-XSSI-prefixed envelope:
// the outer array's [0][2] is a JSON string whose [1] is the final URL.
func parseBatchexecute(body string) string {
	body = strings.TrimLeft(body, ")]}'\n")

	var outer []any
	if err := json.Unmarshal([]byte(body), &outer); err != nil || len(outer) == 0 {
		return ""
	}
	first, ok := outer[0].([]any)
	if !ok || len(first) < 3 {
		return ""
	}
	payload, ok := first[2].(string)
	if !ok {
		return ""
	}

	var inner []any
	if err := json.Unmarshal([]byte(payload), &inner); err != nil || len(inner) < 2 {
		return ""
	}
	final, ok := inner[1].(string)
	if !ok || !strings.HasPrefix(final, "http") {
		return ""
	}
	return final
}

func metaRefreshTarget(doc *goquery.Document) string {
	var target string
	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		equiv, _ := sel.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return true
		}
		content, _ := sel.Attr("content")
		_, after, found := strings.Cut(content, "url=")
		if found && strings.HasPrefix(strings.TrimSpace(after), "http") {
			target = strings.TrimSpace(after)
			return false
		}
		return true
	})
	return target
}

func firstExternalAnchor(doc *goquery.Document) string {
	var target string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "http") && !strings.Contains(href, aggregatorHost) {
			target = href
			return false
		}
		return true
	})
	return target
}
