package domain

import "time"

// Fixed sub-factor names the oracle scores. Order matters only for display.
const (
	SubscoreConflictWar        = "conflict_war"
	SubscorePoliticalStability = "political_stability"
	SubscoreGovernance         = "governance_corruption"
	SubscoreMacroVolatility    = "macroeconomic_volatility"
	SubscoreRegulatory         = "regulatory_uncertainty"
)

// SubscoreNames lists the five sub-factors in canonical order.
var SubscoreNames = []string{
	SubscoreConflictWar,
	SubscorePoliticalStability,
	SubscoreGovernance,
	SubscoreMacroVolatility,
	SubscoreRegulatory,
}

// ArticleScore is the oracle's per-article judgment, referenced by the
// evidence id assigned before the call.
type ArticleScore struct {
	ID         string  `json:"id"`
	Impact     float64 `json:"impact"`
	TopicGroup string  `json:"topic_group"`
}

// RiskAssessment is the validated oracle output. A nil Score is the
// sentinel for every expected failure mode (missing credentials, call
// error, malformed response).
type RiskAssessment struct {
	Subscores     map[string]*float64
	ArticleScores []ArticleScore
	Score         *float64
	BulletSummary string
	// NewsFlow is a diagnostic recency-weighted impact mean. It never
	// feeds back into Score.
	NewsFlow *float64
}

// NullAssessment returns the sentinel assessment used when the oracle
// could not produce a usable judgment.
func NullAssessment() RiskAssessment {
	return RiskAssessment{Subscores: map[string]*float64{}}
}

// CountryRiskRecord is the per-country, per-run output handed to
// persistence. Immutable after hand-off; superseded by the next run's
// record for the same (CountryCode, AsOf).
type CountryRiskRecord struct {
	CountryCode   string
	CountryName   string
	AsOf          time.Time
	MacroEvidence MacroPayload
	Subscores     map[string]*float64
	Score         *float64
	NewsFlow      *float64
	BulletSummary string
	TopArticles   []TopArticle
}
