// Package relevance scores retrieved articles against a target country
// using a keyword-weighted heuristic. Scoring is deterministic and
// side-effect-free; only title and summary text participate.
package relevance

import (
	"sort"
	"strings"

	"countryrisk/internal/domain"
)

// Keyword lists are heuristic and tuned empirically. Exact membership is
// not load-bearing as long as governance/economy/security terms raise the
// score and entertainment/sports terms lower it.
var highKeywords = []string{
	"government", "ministry", "parliament", "president", "prime minister",
	"central bank", "interest rate", "monetary policy", "inflation", "gdp",
	"election", "cabinet", "policy", "budget", "fiscal", "trade",
	"military", "defense", "conflict", "sanctions", "war", "coup", "security",
}

var mediumKeywords = []string{
	"economy", "economic", "finance", "currency", "debt", "growth",
	"minister", "official", "regulation", "law", "reform",
}

var noiseKeywords = []string{
	"sport", "football", "soccer", "basketball", "tennis", "cricket",
	"music", "entertainment", "celebrity", "festival", "award",
	"movie", "film", "actor", "singer", "concert",
}

const (
	baseWithoutCountry = 0.1
	baseWithCountry    = 0.3
	highWeight         = 0.15
	highCap            = 0.5
	mediumWeight       = 0.08
	mediumCap          = 0.2
	noisePenalty       = 0.2
	titleBonus         = 0.15

	// Threshold articles must reach to stay in the pool, and the floor the
	// selection policy guarantees by relaxing that threshold.
	Threshold = 0.30
	MinPool   = 3
)

// Score rates how relevant an article is to the named country, in [0,1].
func Score(title, summary, countryName string) float64 {
	titleLower := strings.ToLower(title)
	text := titleLower + " " + strings.ToLower(summary)

	if countryName == "" || !strings.Contains(text, strings.ToLower(countryName)) {
		return baseWithoutCountry
	}

	score := baseWithCountry

	score += min(countKeywords(text, highKeywords)*highWeight, highCap)
	score += min(countKeywords(text, mediumKeywords)*mediumWeight, mediumCap)
	score -= countKeywords(text, noiseKeywords) * noisePenalty

	if countKeywords(titleLower, highKeywords) > 0 {
		score += titleBonus
	}

	return clamp01(score)
}

// ScoreAll fills RelevanceScore for every item in place.
func ScoreAll(items []domain.ArticleItem, countryName string) {
	for i := range items {
		items[i].RelevanceScore = Score(items[i].Title, items[i].Summary, countryName)
	}
}

// SelectPool keeps articles at or above Threshold, ordered by score then
// recency. If fewer than MinPool survive, the highest-scoring remainder
// backfills until MinPool is reached. The result never exceeds maxArticles.
func SelectPool(items []domain.ArticleItem, maxArticles int) []domain.ArticleItem {
	ranked := make([]domain.ArticleItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RelevanceScore != ranked[j].RelevanceScore {
			return ranked[i].RelevanceScore > ranked[j].RelevanceScore
		}
		return ranked[i].PublishedAt.After(ranked[j].PublishedAt)
	})

	pool := make([]domain.ArticleItem, 0, len(ranked))
	for _, it := range ranked {
		if it.RelevanceScore >= Threshold {
			pool = append(pool, it)
		}
	}

	// Relax the threshold rather than return an under-filled pool.
	if len(pool) < MinPool {
		for _, it := range ranked {
			if len(pool) >= MinPool {
				break
			}
			if it.RelevanceScore < Threshold {
				pool = append(pool, it)
			}
		}
	}

	if maxArticles > 0 && len(pool) > maxArticles {
		pool = pool[:maxArticles]
	}
	return pool
}

func countKeywords(text string, keywords []string) float64 {
	var n float64
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
