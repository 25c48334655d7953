package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "COUNTRY_RISK_CONFIG"
	databaseURLEnv   = "DATABASE_URL"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	renderTokenEnv   = "RENDER_FETCH_TOKEN"
	renderJSTokenEnv = "RENDER_FETCH_JS_TOKEN"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	News      NewsConfig      `yaml:"news"`
	Oracle    OracleConfig    `yaml:"oracle"`
	Render    RenderConfig    `yaml:"render"`
	WorldBank WorldBankConfig `yaml:"worldBank"`
	Logging   LoggingConfig   `yaml:"logging"`
	Countries []CountryConfig `yaml:"countries"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SchedulerConfig defines when the scoring run should execute.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NewsConfig tunes retrieval and the retained article pool.
type NewsConfig struct {
	Lang               string `yaml:"lang"`
	Country            string `yaml:"country"`
	MaxResultsPerQuery int    `yaml:"maxResultsPerQuery"`
	MaxArticles        int    `yaml:"maxArticles"`
	EvidenceCap        int    `yaml:"evidenceCap"`
}

// OracleConfig defines how to contact the scoring model.
type OracleConfig struct {
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	LegalRulesPath string `yaml:"legalRulesPath"`
}

// RenderConfig wires the rendering-capable fetch service used for tier-2
// enrichment of the selected top articles.
type RenderConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Token      string `yaml:"token"`
	PageWaitMS int    `yaml:"pageWaitMs"`
	AjaxWaitMS int    `yaml:"ajaxWaitMs"`
}

// WorldBankConfig describes the macro indicator source and local cache.
type WorldBankConfig struct {
	Endpoint  string `yaml:"endpoint"`
	CacheDir  string `yaml:"cacheDir"`
	SinceYear int    `yaml:"sinceYear"`
	Lookback  int    `yaml:"lookback"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CountryConfig is one entry of the coverage universe.
type CountryConfig struct {
	Name string `yaml:"name"`
	ISO2 string `yaml:"iso2"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Countries) == 0 {
		cfg.Countries = defaultConfig().Countries
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Database.URL = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Oracle.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Oracle.Model = v
	}

	// Prefer the JS-rendering token, then the standard token.
	if v := os.Getenv(renderJSTokenEnv); v != "" {
		c.Render.Token = v
	} else if v := os.Getenv(renderTokenEnv); v != "" {
		c.Render.Token = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.URL != "" {
		base.Database = override.Database
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.News.Lang != "" {
		base.News.Lang = override.News.Lang
	}
	if override.News.Country != "" {
		base.News.Country = override.News.Country
	}
	if override.News.MaxResultsPerQuery > 0 {
		base.News.MaxResultsPerQuery = override.News.MaxResultsPerQuery
	}
	if override.News.MaxArticles > 0 {
		base.News.MaxArticles = override.News.MaxArticles
	}
	if override.News.EvidenceCap > 0 {
		base.News.EvidenceCap = override.News.EvidenceCap
	}

	if override.Oracle.Model != "" {
		base.Oracle.Model = override.Oracle.Model
	}
	if override.Oracle.APIKey != "" {
		base.Oracle.APIKey = override.Oracle.APIKey
	}
	if override.Oracle.LegalRulesPath != "" {
		base.Oracle.LegalRulesPath = override.Oracle.LegalRulesPath
	}

	if override.Render.Endpoint != "" {
		base.Render.Endpoint = override.Render.Endpoint
	}
	if override.Render.Token != "" {
		base.Render.Token = override.Render.Token
	}
	if override.Render.PageWaitMS > 0 {
		base.Render.PageWaitMS = override.Render.PageWaitMS
	}
	if override.Render.AjaxWaitMS > 0 {
		base.Render.AjaxWaitMS = override.Render.AjaxWaitMS
	}

	if override.WorldBank.Endpoint != "" {
		base.WorldBank.Endpoint = override.WorldBank.Endpoint
	}
	if override.WorldBank.CacheDir != "" {
		base.WorldBank.CacheDir = override.WorldBank.CacheDir
	}
	if override.WorldBank.SinceYear > 0 {
		base.WorldBank.SinceYear = override.WorldBank.SinceYear
	}
	if override.WorldBank.Lookback > 0 {
		base.WorldBank.Lookback = override.WorldBank.Lookback
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Countries) > 0 {
		base.Countries = override.Countries
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{URL: ""},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		News: NewsConfig{
			Lang:               "en",
			Country:            "US",
			MaxResultsPerQuery: 15,
			MaxArticles:        20,
			EvidenceCap:        10,
		},
		Oracle: OracleConfig{
			Model:          "gemini-2.0-flash",
			APIKey:         "",
			LegalRulesPath: "",
		},
		Render: RenderConfig{
			Endpoint:   "https://api.crawlbase.com",
			Token:      "",
			PageWaitMS: 1000,
			AjaxWaitMS: 300,
		},
		WorldBank: WorldBankConfig{
			Endpoint:  "https://api.worldbank.org/v2",
			CacheDir:  "data/wb_panel",
			SinceYear: 2015,
			Lookback:  10,
		},
		Logging: LoggingConfig{Level: "info"},
		Countries: []CountryConfig{
			{Name: "Brazil", ISO2: "BR"},
			{Name: "Germany", ISO2: "DE"},
			{Name: "India", ISO2: "IN"},
			{Name: "Nigeria", ISO2: "NG"},
			{Name: "Ukraine", ISO2: "UA"},
		},
	}
}
