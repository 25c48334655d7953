package relevance

import (
	"testing"
	"time"

	"countryrisk/internal/domain"
)

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	title := "Central Bank Holds Rates"
	summary := "Brazil's central bank kept rates unchanged amid inflation concerns"

	first := Score(title, summary, "Brazil")
	for i := 0; i < 5; i++ {
		if got := Score(title, summary, "Brazil"); got != first {
			t.Fatalf("score changed between calls: %v vs %v", got, first)
		}
	}
}

func TestScoreRelevantEconomicNews(t *testing.T) {
	t.Parallel()

	got := Score(
		"Central Bank Holds Rates",
		"Brazil's central bank kept rates unchanged amid inflation concerns",
		"Brazil",
	)

	// Country mention + title keyword bonus + high/medium keyword hits.
	if got <= 0.5 {
		t.Fatalf("expected score > 0.5, got %v", got)
	}
}

func TestScoreNoiseArticleExcluded(t *testing.T) {
	t.Parallel()

	got := Score(
		"Local Football Team Wins Cup",
		"Celebrations erupt in Brazil",
		"Brazil",
	)

	if got >= Threshold {
		t.Fatalf("expected noise article below threshold %v, got %v", Threshold, got)
	}
}

func TestScoreNoCountryMention(t *testing.T) {
	t.Parallel()

	if got := Score("Parliament approves budget", "Sweeping fiscal reform passed", "Brazil"); got != 0.1 {
		t.Fatalf("expected base 0.1 without country mention, got %v", got)
	}
}

func TestScoreBoundsOnEmptyInput(t *testing.T) {
	t.Parallel()

	cases := [][3]string{
		{"", "", ""},
		{"", "", "Brazil"},
		{"war war war conflict sanctions coup", "military defense security election", "Brazil"},
		{"football music concert", "sport celebrity festival award movie in Brazil", "Brazil"},
	}
	for _, c := range cases {
		got := Score(c[0], c[1], c[2])
		if got < 0 || got > 1 {
			t.Fatalf("score out of [0,1] for %q/%q: %v", c[0], c[1], got)
		}
	}
}

func TestSelectPoolThresholdAndFloor(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
	}

	items := []domain.ArticleItem{
		{Link: "a", RelevanceScore: 0.8, PublishedAt: day(1)},
		{Link: "b", RelevanceScore: 0.1, PublishedAt: day(4)},
		{Link: "c", RelevanceScore: 0.2, PublishedAt: day(3)},
		{Link: "d", RelevanceScore: 0.15, PublishedAt: day(2)},
	}

	pool := SelectPool(items, 20)
	if len(pool) != 3 {
		t.Fatalf("expected floor of 3, got %d", len(pool))
	}
	if pool[0].Link != "a" {
		t.Fatalf("expected highest-scored first, got %s", pool[0].Link)
	}
	// Backfill is by score, not recency.
	if pool[1].Link != "c" || pool[2].Link != "d" {
		t.Fatalf("unexpected backfill order: %s, %s", pool[1].Link, pool[2].Link)
	}
}

func TestSelectPoolCap(t *testing.T) {
	t.Parallel()

	items := make([]domain.ArticleItem, 30)
	for i := range items {
		items[i] = domain.ArticleItem{RelevanceScore: 0.9}
	}

	if got := len(SelectPool(items, 20)); got != 20 {
		t.Fatalf("expected cap of 20, got %d", got)
	}
}
