package ports

import (
	"context"
	"time"

	"countryrisk/internal/domain"
)

// NewsSearcher issues one search query against a news feed endpoint.
// A failed or empty query returns an empty slice and an error; callers
// fan out across queries and tolerate individual failures.
type NewsSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.ArticleItem, error)
}

// LinkResolver unwraps aggregator links to canonical publisher URLs.
// Resolution is best effort: on any failure the input is returned
// unchanged, never an error.
type LinkResolver interface {
	Resolve(ctx context.Context, link string) string
}

// Enricher performs the single-GET tier-1 pass: thumbnail, body text, and
// lead summary, filled in place. Enrichment failures leave the item as-is.
type Enricher interface {
	Enrich(ctx context.Context, item *domain.ArticleItem)
}

// RenderMeta is the metadata recovered by a rendering-capable fetch.
type RenderMeta struct {
	Title        string
	Description  string
	Image        string
	PublishedAt  string
	SourceDomain string
}

// RenderFetcher is the tier-2 escalation path: a JavaScript-executing
// fetch service used only for the selected Top-K with missing images.
type RenderFetcher interface {
	FetchMeta(ctx context.Context, url string) (RenderMeta, error)
}

// RiskOracle produces the structured country judgment. Expected failure
// modes (missing credentials, transport errors, schema violations) yield
// the null-score sentinel rather than an error.
type RiskOracle interface {
	Assess(ctx context.Context, countryName, countryISO string, macro domain.MacroPayload, evidence []domain.ArticleItem) domain.RiskAssessment
}

// MacroProvider builds the macro-evidence payload for one country.
type MacroProvider interface {
	Payload(ctx context.Context, countryISO string) (domain.MacroPayload, error)
}

// SnapshotRepository persists country records, idempotent on
// (countryCode, asOf).
type SnapshotRepository interface {
	UpsertSnapshot(ctx context.Context, record domain.CountryRiskRecord) error
}

// Scheduler controls when full runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
