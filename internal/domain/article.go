package domain

import "time"

// ArticleItem is one retrieved news item flowing through the per-country
// pipeline: created at retrieval, enriched in place, projected into the
// final record only if it survives Top-3 selection.
type ArticleItem struct {
	ID             string
	Link           string
	ResolvedLink   string
	Title          string
	Source         string
	PublishedAt    time.Time
	Summary        string
	Content        string
	Image          string
	RelevanceScore float64
	TopicGroup     string
	Impact         *float64
}

// URL returns the canonical publisher link when resolution succeeded,
// otherwise the original retrieval link.
func (a ArticleItem) URL() string {
	if a.ResolvedLink != "" {
		return a.ResolvedLink
	}
	return a.Link
}

// TopArticle is the projection of a selected ArticleItem carried on the
// country record. Rank is 1-based and contiguous within one record.
type TopArticle struct {
	Rank        int
	ID          string
	URL         string
	Title       string
	Source      string
	PublishedAt time.Time
	Impact      *float64
	Summary     string
	Image       string
}
