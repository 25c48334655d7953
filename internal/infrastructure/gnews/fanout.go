package gnews

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"countryrisk/internal/domain"
	"countryrisk/internal/ports"
)

// Queries builds the themed search queries for one country: a broad
// catch-all plus political, economic, and security angles.
func Queries(countryName string) []string {
	return []string{
		fmt.Sprintf("%q news", countryName),
		fmt.Sprintf("%q (government OR president OR prime minister OR parliament OR election OR cabinet OR coup OR protest)", countryName),
		fmt.Sprintf("%q (central bank OR interest rate OR inflation OR GDP OR currency OR monetary policy OR IMF OR World Bank)", countryName),
		fmt.Sprintf("%q (military OR defense OR conflict OR war OR attack OR sanctions OR security OR terrorism)", countryName),
	}
}

// FanOut runs every query concurrently, merges the results, and drops
// duplicate links. A failed query contributes zero items and never aborts
// the others.
func FanOut(ctx context.Context, searcher ports.NewsSearcher, countryName string, perQuery int, logger *slog.Logger) []domain.ArticleItem {
	queries := Queries(countryName)
	results := make([][]domain.ArticleItem, len(queries))

	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			items, err := searcher.Search(ctx, query, perQuery)
			if err != nil {
				if logger != nil {
					logger.Warn("query failed", "query", query, "error", err)
				}
				return
			}
			results[i] = items
		}(i, query)
	}
	wg.Wait()

	seen := map[string]struct{}{}
	var merged []domain.ArticleItem
	for _, items := range results {
		for _, it := range items {
			if _, ok := seen[it.Link]; ok {
				continue
			}
			seen[it.Link] = struct{}{}
			merged = append(merged, it)
		}
	}

	if logger != nil {
		logger.Debug("fan-out merged", "country", countryName, "queries", len(queries), "articles", len(merged))
	}
	return merged
}
