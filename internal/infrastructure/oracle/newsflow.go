package oracle

import (
	"time"

	"countryrisk/internal/domain"
)

// recencyWeight discounts older evidence when averaging impacts.
func recencyWeight(daysOld int) float64 {
	switch {
	case daysOld <= 14:
		return 1.0
	case daysOld <= 60:
		return 0.60
	default:
		return 0.30
	}
}

// ComputeNewsFlow is a diagnostic recency-weighted mean of per-article
// impacts, with a 10% corroboration boost when at least two severe
// (>=0.85) events landed within 30 days. Clamped to [0.05, 0.95] and
// never a substitute for the model's score.
func ComputeNewsFlow(articles []domain.ArticleItem, impacts map[string]float64, now time.Time) float64 {
	var num, den float64
	severeRecent := 0
	today := now.UTC()

	for _, it := range articles {
		imp, ok := impacts[it.ID]
		if !ok {
			continue
		}
		age := 9999
		if !it.PublishedAt.IsZero() {
			age = int(today.Sub(it.PublishedAt.UTC()).Hours() / 24)
		}
		w := recencyWeight(age)
		num += w * imp
		den += w
		if imp >= 0.85 && age <= 30 {
			severeRecent++
		}
	}

	flow := 0.10
	if den > 0 {
		flow = num / den
	}
	if severeRecent >= 2 {
		flow = min(flow*1.10, 1.0)
	}
	return max(0.05, min(flow, 0.95))
}
