// Package evidence prepares the scored article pool for the risk oracle:
// stable per-run identifiers, a hard cap, and the compact projection that
// goes into the prompt.
package evidence

import (
	"encoding/json"
	"fmt"

	"countryrisk/internal/domain"
)

// MaxArticles bounds how many articles reach the oracle. More evidence
// past this point adds tokens, not signal.
const MaxArticles = 10

// Assign caps the pool and tags each article with an identifier a1..aN in
// slice order. The order must not change afterwards; the oracle's
// per-article scores reference these identifiers.
func Assign(items []domain.ArticleItem) []domain.ArticleItem {
	n := len(items)
	if n > MaxArticles {
		n = MaxArticles
	}
	out := make([]domain.ArticleItem, n)
	copy(out, items[:n])
	for i := range out {
		out[i].ID = fmt.Sprintf("a%d", i+1)
	}
	return out
}

// PromptArticle is the projection of one article sent to the oracle.
// Only fields the judgment needs; content stays out of the prompt body
// and summaries carry the substance.
type PromptArticle struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
}

// Project maps assigned articles to their prompt form. Publication dates
// are day precision; unknown dates project as empty strings.
func Project(items []domain.ArticleItem) []PromptArticle {
	out := make([]PromptArticle, 0, len(items))
	for _, it := range items {
		published := ""
		if !it.PublishedAt.IsZero() {
			published = it.PublishedAt.Format("2006-01-02")
		}
		out = append(out, PromptArticle{
			ID:          it.ID,
			Source:      it.Source,
			PublishedAt: published,
			Title:       it.Title,
			Summary:     it.Summary,
		})
	}
	return out
}

// JSON renders the projection for prompt interpolation.
func JSON(items []domain.ArticleItem) (string, error) {
	raw, err := json.MarshalIndent(Project(items), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal evidence: %w", err)
	}
	return string(raw), nil
}
