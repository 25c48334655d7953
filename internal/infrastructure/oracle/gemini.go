// Package oracle invokes the scoring model with a schema-constrained
// prompt, validates the reply, applies the legal-investability gate, and
// derives the diagnostic news-flow metric.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"countryrisk/internal/domain"
	"countryrisk/internal/evidence"
	"countryrisk/internal/ports"
)

const bulletCap = 800

// Gemini implements ports.RiskOracle on the Gemini API. Every expected
// failure mode degrades to the null-score sentinel; the caller decides
// what a null score means downstream.
type Gemini struct {
	apiKey string
	model  string
	gate   *Gate
	log    *slog.Logger
}

var _ ports.RiskOracle = (*Gemini)(nil)

func NewGemini(apiKey, model string, gate *Gate, log *slog.Logger) *Gemini {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gemini{apiKey: apiKey, model: model, gate: gate, log: log}
}

// oracleReply mirrors the response schema. Pointer fields distinguish
// "absent" from zero during validation.
type oracleReply struct {
	Subscores     map[string]*float64   `json:"subscores"`
	ArticleScores []domain.ArticleScore `json:"news_article_scores"`
	Score         *float64              `json:"score"`
	BulletSummary string                `json:"bullet_summary"`
}

// Assess runs one scoring call for a country. The returned Score is the
// model's own number, except when the legal gate fires, in which case it
// is forced to 1.0 with the rationale prepended to the summary.
func (g *Gemini) Assess(ctx context.Context, countryName, countryISO string, macro domain.MacroPayload, articles []domain.ArticleItem) domain.RiskAssessment {
	if g.apiKey == "" {
		g.log.Error("oracle api key not set; returning null assessment", "country", countryISO)
		return domain.NullAssessment()
	}

	now := time.Now().UTC()
	gateRule, gated := g.gate.Decision(countryISO, now)

	articlesJSON, err := evidence.JSON(articles)
	if err != nil {
		g.log.Error("cannot serialize evidence", "country", countryISO, "error", err)
		return domain.NullAssessment()
	}
	prompt := fmt.Sprintf(riskPrompt, countryName, macro.JSON(), articlesJSON)

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		g.log.Error("oracle call failed", "country", countryISO, "error", err)
		return domain.NullAssessment()
	}

	reply, err := decodeReply(raw)
	if err != nil {
		g.log.Error("oracle returned invalid structure", "country", countryISO, "error", err)
		return domain.NullAssessment()
	}

	assessment := domain.RiskAssessment{
		Subscores:     reply.Subscores,
		ArticleScores: reply.ArticleScores,
		Score:         reply.Score,
		BulletSummary: clipRunes(reply.BulletSummary, bulletCap),
	}

	flow := ComputeNewsFlow(articles, impactIndex(reply.ArticleScores), now)
	assessment.NewsFlow = &flow

	if gated {
		g.log.Info("legal-investability gate triggered", "country", countryISO, "rule", gateRule.Name)
		assessment = gateRule.Apply(assessment)
	}
	return assessment
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// decodeReply parses and validates the model output: all five subscores
// present and in range, a final score in [0,1], and per-article impacts
// in [0,1].
func decodeReply(raw string) (oracleReply, error) {
	var reply oracleReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return oracleReply{}, fmt.Errorf("decode json: %w", err)
	}

	if reply.Score == nil {
		return oracleReply{}, fmt.Errorf("missing score")
	}
	if *reply.Score < 0 || *reply.Score > 1 {
		return oracleReply{}, fmt.Errorf("score %v out of range", *reply.Score)
	}
	if reply.Subscores == nil {
		return oracleReply{}, fmt.Errorf("missing subscores")
	}
	for _, name := range domain.SubscoreNames {
		v, ok := reply.Subscores[name]
		if !ok {
			return oracleReply{}, fmt.Errorf("missing subscore %s", name)
		}
		if v != nil && (*v < 0 || *v > 1) {
			return oracleReply{}, fmt.Errorf("subscore %s out of range: %v", name, *v)
		}
	}
	for _, as := range reply.ArticleScores {
		if as.ID == "" {
			return oracleReply{}, fmt.Errorf("article score without id")
		}
		if as.Impact < 0 || as.Impact > 1 {
			return oracleReply{}, fmt.Errorf("article %s impact out of range: %v", as.ID, as.Impact)
		}
	}
	return reply, nil
}

func impactIndex(scores []domain.ArticleScore) map[string]float64 {
	idx := make(map[string]float64, len(scores))
	for _, s := range scores {
		idx[s.ID] = s.Impact
	}
	return idx
}

func responseSchema() *genai.Schema {
	nullableScore := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(1.0), Nullable: genai.Ptr(true)}
	}

	subscores := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			domain.SubscoreConflictWar:        nullableScore(),
			domain.SubscorePoliticalStability: nullableScore(),
			domain.SubscoreGovernance:         nullableScore(),
			domain.SubscoreMacroVolatility:    nullableScore(),
			domain.SubscoreRegulatory:         nullableScore(),
		},
		Required: domain.SubscoreNames,
	}

	articleScore := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":          {Type: genai.TypeString},
			"impact":      {Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(1.0)},
			"topic_group": {Type: genai.TypeString},
		},
		Required: []string{"id", "impact", "topic_group"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"subscores":           subscores,
			"news_article_scores": {Type: genai.TypeArray, Items: articleScore},
			"score":               {Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(1.0)},
			"bullet_summary":      {Type: genai.TypeString},
		},
		Required: []string{"subscores", "news_article_scores", "score", "bullet_summary"},
	}
}

func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
