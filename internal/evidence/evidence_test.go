package evidence

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"countryrisk/internal/domain"
)

func TestAssignIdentifiersInOrder(t *testing.T) {
	t.Parallel()

	items := []domain.ArticleItem{
		{Title: "first"},
		{Title: "second"},
		{Title: "third"},
	}

	got := Assign(items)
	for i, it := range got {
		want := fmt.Sprintf("a%d", i+1)
		if it.ID != want {
			t.Fatalf("item %d id = %q, want %q", i, it.ID, want)
		}
	}
	if got[0].Title != "first" || got[2].Title != "third" {
		t.Fatal("assignment must preserve order")
	}
	if items[0].ID != "" {
		t.Fatal("input slice must not be mutated")
	}
}

func TestAssignCapsPool(t *testing.T) {
	t.Parallel()

	items := make([]domain.ArticleItem, MaxArticles+5)
	for i := range items {
		items[i].Title = fmt.Sprintf("t%d", i)
	}

	got := Assign(items)
	if len(got) != MaxArticles {
		t.Fatalf("expected %d items, got %d", MaxArticles, len(got))
	}
	if got[len(got)-1].ID != fmt.Sprintf("a%d", MaxArticles) {
		t.Fatalf("unexpected last id: %q", got[len(got)-1].ID)
	}
}

func TestProjectDayPrecisionDates(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	items := Assign([]domain.ArticleItem{
		{Title: "dated", Source: "Reuters", PublishedAt: published, Summary: "s"},
		{Title: "undated"},
	})

	got := Project(items)
	if got[0].PublishedAt != "2026-03-02" {
		t.Fatalf("expected day precision, got %q", got[0].PublishedAt)
	}
	if got[1].PublishedAt != "" {
		t.Fatalf("expected empty date for zero time, got %q", got[1].PublishedAt)
	}
}

func TestJSONCarriesIdentifiers(t *testing.T) {
	t.Parallel()

	items := Assign([]domain.ArticleItem{{Title: "only", Source: "AP"}})
	raw, err := JSON(items)
	if err != nil {
		t.Fatalf("JSON error: %v", err)
	}
	for _, want := range []string{`"id": "a1"`, `"source": "AP"`, `"title": "only"`} {
		if !strings.Contains(raw, want) {
			t.Fatalf("projection missing %s:\n%s", want, raw)
		}
	}
}
