package domain

import "encoding/json"

// IndicatorStats summarizes one macro indicator for the oracle prompt:
// the latest observation, relative changes over 1 and 5 years, and the
// recent annual series keyed by year.
type IndicatorStats struct {
	Latest  *float64           `json:"latest"`
	Delta1Y *float64           `json:"Δ1y"`
	Delta5Y *float64           `json:"Δ5y"`
	Series  map[string]float64 `json:"series"`
}

// MacroMeta carries provenance for the macro payload.
type MacroMeta struct {
	Units       map[string]string `json:"units"`
	Source      string            `json:"source"`
	GeneratedAt string            `json:"generated_at"`
}

// MacroPayload is the macro-evidence blob embedded in the oracle prompt
// and passed through to persistence. The core never interprets indicator
// values; it only serializes them.
type MacroPayload struct {
	Country    string                    `json:"country"`
	LatestYear int                       `json:"latest_year"`
	Indicators map[string]IndicatorStats `json:"indicators"`
	Meta       MacroMeta                 `json:"_meta"`
}

// JSON serializes the payload for prompt embedding. An empty payload
// serializes to a valid empty object rather than failing.
func (p MacroPayload) JSON() string {
	raw, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
