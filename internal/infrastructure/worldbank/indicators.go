// Package worldbank fetches macro indicator series from the World Bank
// API, caches panels per country, and assembles the macro-evidence
// payload for the oracle prompt.
package worldbank

// Indicators maps internal keys to World Bank series codes.
var Indicators = map[string]string{
	"INFLATION":          "FP.CPI.TOTL.ZG",       // consumer-price inflation, % y/y
	"UNEMPLOYMENT":       "SL.UEM.TOTL.ZS",       // unemployment rate, % labour force
	"FDI_PCT_GDP":        "BX.KLT.DINV.WD.GD.ZS", // FDI net inflows, % GDP
	"POL_STABILITY":      "PV.EST",               // political stability, z-score
	"RULE_OF_LAW":        "RL.EST",               // rule of law, z-score
	"CONTROL_CORRUPTION": "CC.EST",               // control of corruption, z-score
	"GINI_INDEX":         "SI.POV.GINI",          // income inequality, 0-100
	"GDP_PC_GROWTH":      "NY.GDP.PCAP.KD.ZG",    // GDP per-capita growth, % y/y
	"INT_PAYM_PCT_REV":   "GC.XPN.INTP.RV.ZS",    // interest payments / revenue, %
}

// NiceName maps internal keys to the display names used in the payload.
var NiceName = map[string]string{
	"INFLATION":          "Inflation (% y/y)",
	"UNEMPLOYMENT":       "Unemployment (% labour force)",
	"FDI_PCT_GDP":        "FDI inflow (% GDP)",
	"POL_STABILITY":      "Political stability (z-score)",
	"RULE_OF_LAW":        "Rule of law (z-score)",
	"CONTROL_CORRUPTION": "Control of corruption (z-score)",
	"GINI_INDEX":         "Income inequality (Gini)",
	"GDP_PC_GROWTH":      "GDP per-capita growth (% y/y)",
	"INT_PAYM_PCT_REV":   "Interest payments (% revenue)",
}

// Units annotates the payload's _meta block, keyed by display name.
var Units = map[string]string{
	"Inflation (% y/y)":               "% y/y",
	"Unemployment (% labour force)":   "%",
	"FDI inflow (% GDP)":              "% GDP",
	"Political stability (z-score)":   "z-score",
	"Rule of law (z-score)":           "z-score",
	"Control of corruption (z-score)": "z-score",
	"Income inequality (Gini)":        "index",
	"GDP per-capita growth (% y/y)":   "% y/y",
	"Interest payments (% revenue)":   "% revenue",
}
