// Package usecase orchestrates the per-country scoring pipeline: macro
// payload, news retrieval and enrichment, the oracle call, top-article
// selection, and the persistence hand-off.
package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"countryrisk/internal/config"
	"countryrisk/internal/domain"
	"countryrisk/internal/evidence"
	"countryrisk/internal/infrastructure/gnews"
	"countryrisk/internal/ports"
	"countryrisk/internal/relevance"
	"countryrisk/internal/topk"
)

// enrichWorkers bounds the concurrent tier-1 fetches per country.
const enrichWorkers = 4

// Pipeline wires the ports into one country run. All collaborators are
// interfaces; the render fetcher is optional and skipped when nil.
type Pipeline struct {
	news     ports.NewsSearcher
	resolver ports.LinkResolver
	enricher ports.Enricher
	render   ports.RenderFetcher
	oracle   ports.RiskOracle
	macro    ports.MacroProvider
	repo     ports.SnapshotRepository

	perQuery    int
	maxArticles int
	log         *slog.Logger
	now         func() time.Time
}

// Deps collects the pipeline collaborators.
type Deps struct {
	News     ports.NewsSearcher
	Resolver ports.LinkResolver
	Enricher ports.Enricher
	Render   ports.RenderFetcher
	Oracle   ports.RiskOracle
	Macro    ports.MacroProvider
	Repo     ports.SnapshotRepository
}

func NewPipeline(deps Deps, news config.NewsConfig, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	perQuery := news.MaxResultsPerQuery
	if perQuery <= 0 {
		perQuery = 15
	}
	maxArticles := news.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 20
	}
	return &Pipeline{
		news:        deps.News,
		resolver:    deps.Resolver,
		enricher:    deps.Enricher,
		render:      deps.Render,
		oracle:      deps.Oracle,
		macro:       deps.Macro,
		repo:        deps.Repo,
		perQuery:    perQuery,
		maxArticles: maxArticles,
		log:         log,
		now:         time.Now,
	}
}

// Run processes every configured country sequentially. A failing country
// is logged and skipped; it never aborts the rest of the run.
func (p *Pipeline) Run(ctx context.Context, countries []config.CountryConfig) {
	started := p.now().UTC()
	p.log.Info("scoring run started", "countries", len(countries))

	for _, country := range countries {
		if ctx.Err() != nil {
			p.log.Warn("scoring run cancelled", "remaining", country.ISO2)
			return
		}

		record, err := p.RunCountry(ctx, country.Name, country.ISO2)
		if err != nil {
			p.log.Error("country run failed", "country", country.ISO2, "error", err)
			continue
		}
		if err := p.repo.UpsertSnapshot(ctx, record); err != nil {
			p.log.Error("snapshot persist failed", "country", country.ISO2, "error", err)
			continue
		}
		p.log.Info("country scored",
			"country", country.ISO2,
			"score", scoreForLog(record.Score),
			"articles", len(record.TopArticles))
	}

	p.log.Info("scoring run finished", "elapsed", p.now().UTC().Sub(started).Round(time.Second))
}

// RunCountry executes the full pipeline for one country and returns the
// record ready for persistence.
func (p *Pipeline) RunCountry(ctx context.Context, countryName, countryISO string) (domain.CountryRiskRecord, error) {
	macro, err := p.macro.Payload(ctx, countryISO)
	if err != nil {
		return domain.CountryRiskRecord{}, err
	}

	items := gnews.FanOut(ctx, p.news, countryName, p.perQuery, p.log)
	relevance.ScoreAll(items, countryName)
	pool := relevance.SelectPool(items, p.maxArticles)
	p.log.Info("article pool selected", "country", countryISO, "retrieved", len(items), "pool", len(pool))

	for i := range pool {
		pool[i].ResolvedLink = p.resolver.Resolve(ctx, pool[i].Link)
	}

	p.enrichPool(ctx, pool)

	articles := evidence.Assign(pool)
	assessment := p.oracle.Assess(ctx, countryName, countryISO, macro, articles)
	applyScores(articles, assessment.ArticleScores)

	topIDs := topk.Select(articles, assessment.ArticleScores)
	byID := make(map[string]*domain.ArticleItem, len(articles))
	for i := range articles {
		byID[articles[i].ID] = &articles[i]
	}
	p.backfillSelected(ctx, topIDs, byID)

	asOf := p.now().UTC().Truncate(24 * time.Hour)
	record := domain.CountryRiskRecord{
		CountryCode:   countryISO,
		CountryName:   countryName,
		AsOf:          asOf,
		MacroEvidence: macro,
		Subscores:     assessment.Subscores,
		Score:         assessment.Score,
		NewsFlow:      assessment.NewsFlow,
		BulletSummary: assessment.BulletSummary,
		TopArticles:   topArticles(topIDs, byID),
	}
	return record, nil
}

// enrichPool runs tier-1 enrichment over a small worker pool; articles
// are independent, so order does not matter.
func (p *Pipeline) enrichPool(ctx context.Context, pool []domain.ArticleItem) {
	if p.enricher == nil || len(pool) == 0 {
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := min(enrichWorkers, len(pool))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p.enricher.Enrich(ctx, &pool[i])
			}
		}()
	}
	for i := range pool {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// backfillSelected escalates to tier 2 only for selected articles that
// still have no image. A failed fetch leaves the article as-is.
func (p *Pipeline) backfillSelected(ctx context.Context, topIDs []string, byID map[string]*domain.ArticleItem) {
	if p.render == nil {
		return
	}

	for _, id := range topIDs {
		item := byID[id]
		if item == nil || item.Image != "" {
			continue
		}

		meta, err := p.render.FetchMeta(ctx, item.URL())
		if err != nil {
			p.log.Warn("render backfill failed", "id", id, "url", item.URL(), "error", err)
			continue
		}
		if meta.Image != "" {
			item.Image = meta.Image
		}
		if item.PublishedAt.IsZero() {
			if ts, ok := parseLoose(meta.PublishedAt); ok {
				item.PublishedAt = ts
			}
		}
	}
}

func applyScores(articles []domain.ArticleItem, scores []domain.ArticleScore) {
	byID := make(map[string]domain.ArticleScore, len(scores))
	for _, s := range scores {
		byID[s.ID] = s
	}
	for i := range articles {
		if s, ok := byID[articles[i].ID]; ok {
			impact := s.Impact
			articles[i].Impact = &impact
			articles[i].TopicGroup = s.TopicGroup
		}
	}
}

func topArticles(topIDs []string, byID map[string]*domain.ArticleItem) []domain.TopArticle {
	out := make([]domain.TopArticle, 0, len(topIDs))
	for rank, id := range topIDs {
		item := byID[id]
		if item == nil {
			continue
		}
		out = append(out, domain.TopArticle{
			Rank:        rank + 1,
			ID:          item.ID,
			URL:         item.URL(),
			Title:       item.Title,
			Source:      item.Source,
			PublishedAt: item.PublishedAt,
			Impact:      item.Impact,
			Summary:     item.Summary,
			Image:       item.Image,
		})
	}
	return out
}

func parseLoose(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func scoreForLog(score *float64) any {
	if score == nil {
		return "null"
	}
	return *score
}
