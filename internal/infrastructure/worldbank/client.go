package worldbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"countryrisk/internal/retry"
)

const clientUA = "countryrisk/1.0 (macro panel fetcher)"

// Observation is one yearly data point. A nil value means the World Bank
// reports the year without data.
type Observation struct {
	Year  int      `json:"year"`
	Value *float64 `json:"value"`
}

// Client fetches indicator series from the World Bank v2 API. Transient
// statuses (429, 5xx) and network errors are retried; 400/404 and empty
// result sets mean "no data for this country/indicator" and come back as
// an empty series, not an error.
type Client struct {
	endpoint string
	client   *http.Client
	policy   retry.Policy
	log      *slog.Logger
}

type transientStatusError struct {
	status int
}

func (e *transientStatusError) Error() string {
	return fmt.Sprintf("world bank returned %d", e.status)
}

func NewClient(endpoint string, client *http.Client, log *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = "https://api.worldbank.org/v2"
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		policy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.Jittered(time.Second, time.Second),
		},
		log: log,
	}
}

// Series fetches all yearly observations for one indicator, ascending by
// year.
func (c *Client) Series(ctx context.Context, countryCode, indicator string) ([]Observation, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("per_page", "1000")
	endpoint := fmt.Sprintf("%s/country/%s/indicator/%s?%s",
		c.endpoint, normalizeCode(countryCode), indicator, params.Encode())

	var series []Observation
	err := c.policy.Do(ctx, func() error {
		obs, err := c.fetchOnce(ctx, endpoint)
		if err != nil {
			return err
		}
		series = obs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", countryCode, indicator, err)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	return series, nil
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", clientUA)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		// No data for this country/indicator combination.
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &transientStatusError{status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("world bank returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}

	// Envelope is [meta, rows]; rows is null when the series is empty.
	var envelope []json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope) < 2 {
		return nil, errors.New("unexpected envelope shape")
	}

	var rows []struct {
		Date  string   `json:"date"`
		Value *float64 `json:"value"`
	}
	if string(envelope[1]) != "null" {
		if err := json.Unmarshal(envelope[1], &rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
	}

	obs := make([]Observation, 0, len(rows))
	for _, row := range rows {
		year, err := strconv.Atoi(row.Date)
		if err != nil {
			continue
		}
		obs = append(obs, Observation{Year: year, Value: row.Value})
	}
	return obs, nil
}

// normalizeCode maps codes the World Bank spells differently.
func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "TW" {
		return "TWN"
	}
	return code
}
