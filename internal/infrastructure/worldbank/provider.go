package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"countryrisk/internal/domain"
	"countryrisk/internal/ports"
)

// Provider implements ports.MacroProvider: a cached per-country panel of
// all indicators, reduced to the payload the oracle prompt embeds.
type Provider struct {
	client    *Client
	cacheDir  string
	sinceYear int
	lookback  int
	log       *slog.Logger
}

var _ ports.MacroProvider = (*Provider)(nil)

func NewProvider(client *Client, cacheDir string, sinceYear, lookback int, log *slog.Logger) *Provider {
	if sinceYear == 0 {
		sinceYear = 2015
	}
	if lookback == 0 {
		lookback = 10
	}
	if log == nil {
		log = slog.Default()
	}
	return &Provider{client: client, cacheDir: cacheDir, sinceYear: sinceYear, lookback: lookback, log: log}
}

// panelFile is the on-disk cache: the raw fetched series per indicator
// key, so payload shaping can evolve without refetching.
type panelFile struct {
	Country   string                   `json:"country"`
	FetchedAt time.Time                `json:"fetched_at"`
	Series    map[string][]Observation `json:"series"`
}

// Payload builds the macro-evidence payload for one country: latest
// value, 1y/5y relative changes, and the recent series per indicator.
func (p *Provider) Payload(ctx context.Context, countryISO string) (domain.MacroPayload, error) {
	panel, err := p.panel(ctx, countryISO)
	if err != nil {
		return domain.MacroPayload{}, err
	}

	years := panelYears(panel, p.sinceYear)
	if len(years) == 0 {
		return domain.MacroPayload{}, fmt.Errorf("no macro data for %s since %d", countryISO, p.sinceYear)
	}
	latestYear := years[len(years)-1]

	indicators := make(map[string]domain.IndicatorStats, len(panel))
	for key, series := range panel {
		name := NiceName[key]
		if name == "" {
			name = key
		}
		indicators[name] = indicatorStats(series, years, latestYear, p.lookback)
	}

	return domain.MacroPayload{
		Country:    normalizeCode(countryISO),
		LatestYear: latestYear,
		Indicators: indicators,
		Meta: domain.MacroMeta{
			Units:       Units,
			Source:      "World Bank",
			GeneratedAt: time.Now().UTC().Format("2006-01-02T15:04Z"),
		},
	}, nil
}

// panel returns the cached per-indicator series, fetching and caching
// when no usable cache file exists.
func (p *Provider) panel(ctx context.Context, countryISO string) (map[string][]Observation, error) {
	path := p.cachePath(countryISO)
	if path != "" {
		if cached, err := readPanel(path); err == nil {
			return cached.Series, nil
		}
	}

	series := make(map[string][]Observation, len(Indicators))
	for key, code := range Indicators {
		obs, err := p.client.Series(ctx, countryISO, code)
		if err != nil {
			// A single missing indicator must not sink the panel.
			p.log.Warn("indicator fetch failed", "country", countryISO, "indicator", code, "error", err)
			obs = nil
		}
		series[key] = obs
	}

	if empty := allEmpty(series); empty {
		return nil, fmt.Errorf("world bank returned no data for %s", countryISO)
	}

	if path != "" {
		if err := writePanel(path, panelFile{
			Country:   normalizeCode(countryISO),
			FetchedAt: time.Now().UTC(),
			Series:    series,
		}); err != nil {
			p.log.Warn("cannot write panel cache", "path", path, "error", err)
		}
	}
	return series, nil
}

func (p *Provider) cachePath(countryISO string) string {
	if p.cacheDir == "" {
		return ""
	}
	return filepath.Join(p.cacheDir, normalizeCode(countryISO)+".json")
}

func readPanel(path string) (panelFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return panelFile{}, err
	}
	var pf panelFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return panelFile{}, err
	}
	if len(pf.Series) == 0 {
		return panelFile{}, fmt.Errorf("empty panel cache %s", path)
	}
	return pf, nil
}

func writePanel(path string, pf panelFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func allEmpty(series map[string][]Observation) bool {
	for _, obs := range series {
		if len(obs) > 0 {
			return false
		}
	}
	return true
}

// panelYears collects the distinct years covered by any indicator, from
// sinceYear onward, ascending.
func panelYears(panel map[string][]Observation, sinceYear int) []int {
	seen := make(map[int]bool)
	for _, series := range panel {
		for _, obs := range series {
			if obs.Year >= sinceYear {
				seen[obs.Year] = true
			}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func indicatorStats(series []Observation, years []int, latestYear, lookback int) domain.IndicatorStats {
	values := make(map[int]*float64, len(series))
	for _, obs := range series {
		values[obs.Year] = obs.Value
	}

	stats := domain.IndicatorStats{Series: map[string]float64{}}
	if v := values[latestYear]; v != nil {
		stats.Latest = roundPtr(*v, 2)
	}
	stats.Delta1Y = relativeChange(values, years, 1)
	stats.Delta5Y = relativeChange(values, years, 5)

	// Last `lookback` observed values within the covered window.
	var observed []int
	for _, y := range years {
		if values[y] != nil {
			observed = append(observed, y)
		}
	}
	if len(observed) > lookback {
		observed = observed[len(observed)-lookback:]
	}
	for _, y := range observed {
		stats.Series[strconv.Itoa(y)] = round(*values[y], 2)
	}
	return stats
}

// relativeChange is (latest - earlier) / earlier over a horizon of h
// panel years, nil when either endpoint is missing or the base is zero.
func relativeChange(values map[int]*float64, years []int, h int) *float64 {
	if len(years) <= h {
		return nil
	}
	latest := values[years[len(years)-1]]
	base := values[years[len(years)-1-h]]
	if latest == nil || base == nil || *base == 0 {
		return nil
	}
	return roundPtr((*latest-*base)/ *base, 3)
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}

func roundPtr(v float64, places int) *float64 {
	r := round(v, places)
	return &r
}
