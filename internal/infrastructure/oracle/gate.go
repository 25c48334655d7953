package oracle

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"countryrisk/internal/domain"
)

// GateRule is one legal-investability entry: a country where sanctions or
// comparable legal restrictions prohibit investment outright.
type GateRule struct {
	Name          string   `yaml:"name"`
	ISO2          string   `yaml:"iso2"`
	Code          string   `yaml:"code"`
	Rule          string   `yaml:"rule"`
	EffectiveFrom string   `yaml:"effective_from"`
	Sources       []string `yaml:"sources"`
	Trigger       struct {
		SetScoreOne bool `yaml:"set_score_1_0"`
	} `yaml:"trigger"`
}

// Apply forces the maximum score and prepends the rationale, keeping the
// model's own summary as context.
func (r GateRule) Apply(a domain.RiskAssessment) domain.RiskAssessment {
	name := r.Name
	if name == "" {
		name = r.ISO2
	}
	rule := r.Rule
	if rule == "" {
		rule = "Sanctions investability prohibition"
	}

	one := 1.0
	a.Score = &one
	note := fmt.Sprintf("Legal-investability gate triggered for %s: %s => score forced to 1.0.", name, rule)
	a.BulletSummary = clipRunes(strings.TrimSpace(note+" "+a.BulletSummary), bulletCap)
	return a
}

// Gate indexes the rules by country code. A nil or empty gate never fires.
type Gate struct {
	index map[string]GateRule
}

// LoadGate reads the YAML rule file. An empty path yields an inert gate;
// a missing or malformed file is an error since silently scoring a
// sanctioned country as investable is worse than failing startup.
func LoadGate(path string) (*Gate, error) {
	if path == "" {
		return &Gate{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legal rules: %w", err)
	}

	var file struct {
		Entries []GateRule `yaml:"entries"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse legal rules: %w", err)
	}

	idx := make(map[string]GateRule, len(file.Entries))
	for _, e := range file.Entries {
		key := strings.ToUpper(e.ISO2)
		if key == "" {
			key = strings.ToUpper(e.Code)
		}
		if key != "" {
			idx[key] = e
		}
	}
	return &Gate{index: idx}, nil
}

// Decision reports whether the override fires for a country as of the
// given date.
func (g *Gate) Decision(iso2 string, asOf time.Time) (GateRule, bool) {
	if g == nil || g.index == nil {
		return GateRule{}, false
	}
	entry, ok := g.index[strings.ToUpper(iso2)]
	if !ok || !entry.Trigger.SetScoreOne {
		return GateRule{}, false
	}

	if entry.EffectiveFrom != "" {
		eff, err := time.Parse("2006-01-02", entry.EffectiveFrom[:min(10, len(entry.EffectiveFrom))])
		if err == nil && asOf.Before(eff) {
			return GateRule{}, false
		}
	}
	return entry, true
}
