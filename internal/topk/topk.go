// Package topk selects the representative evidence articles shown to end
// users: one per topic group, ranked by impact, backfilled for diversity
// without ever under-filling.
package topk

import (
	"sort"

	"countryrisk/internal/domain"
)

// Limit is how many articles survive into the output record.
const Limit = 3

// Select returns min(Limit, len(pool)) article IDs. Topic groups and
// impacts come from the oracle's per-article scores; when those are
// unusable the pool order falls back to relevance and recency.
func Select(pool []domain.ArticleItem, scores []domain.ArticleScore) []string {
	byID := make(map[string]domain.ArticleItem, len(pool))
	order := make([]string, 0, len(pool))
	for _, it := range pool {
		if it.ID == "" {
			continue
		}
		byID[it.ID] = it
		order = append(order, it.ID)
	}

	impacts := make(map[string]float64)
	topics := make(map[string][]string)
	for _, s := range scores {
		if s.ID == "" {
			continue
		}
		if _, known := byID[s.ID]; !known {
			continue
		}
		impacts[s.ID] = s.Impact
		topic := s.TopicGroup
		if topic == "" {
			topic = "unknown"
		}
		topics[topic] = append(topics[topic], s.ID)
	}

	if len(impacts) == 0 || len(topics) == 0 {
		return relevanceFallback(order, byID)
	}

	// One representative per topic: highest impact, most recent on ties.
	representatives := make([]string, 0, len(topics))
	isRepresentative := make(map[string]bool)
	for _, ids := range topics {
		best := ids[0]
		for _, id := range ids[1:] {
			if better(id, best, impacts, byID) {
				best = id
			}
		}
		representatives = append(representatives, best)
		isRepresentative[best] = true
	}

	sort.SliceStable(representatives, func(i, j int) bool {
		return better(representatives[i], representatives[j], impacts, byID)
	})

	limit := min(Limit, len(order))
	selected := representatives
	if len(selected) > limit {
		selected = selected[:limit]
	}

	// Fewer topics than slots: backfill from non-representatives so the
	// record still carries min(Limit, pool) articles.
	if len(selected) < limit {
		var rest []string
		for _, id := range order {
			if !isRepresentative[id] {
				rest = append(rest, id)
			}
		}
		sort.SliceStable(rest, func(i, j int) bool {
			return better(rest[i], rest[j], impacts, byID)
		})
		selected = append(selected, rest[:limit-len(selected)]...)
	}
	return selected
}

// better orders ids by impact descending, then recency descending.
func better(a, b string, impacts map[string]float64, byID map[string]domain.ArticleItem) bool {
	ia, ib := impacts[a], impacts[b]
	if ia != ib {
		return ia > ib
	}
	return byID[a].PublishedAt.After(byID[b].PublishedAt)
}

// relevanceFallback ranks by (relevanceScore desc, recency desc) when the
// oracle gave nothing usable.
func relevanceFallback(order []string, byID map[string]domain.ArticleItem) []string {
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := byID[ranked[i]], byID[ranked[j]]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		return a.PublishedAt.After(b.PublishedAt)
	})
	if len(ranked) > Limit {
		ranked = ranked[:Limit]
	}
	return ranked
}
