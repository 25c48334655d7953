// Package storage persists country risk snapshots into Postgres.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"countryrisk/internal/domain"
	"countryrisk/internal/ports"
)

// PostgresRepository writes one record per (country, as_of) across the
// country/indicator/yearly_value/risk_snapshot tables in a single
// transaction. Re-running a day overwrites that day's snapshot.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.SnapshotRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// UpsertSnapshot atomically stores the record: the parent country row,
// indicator definitions and yearly values, the snapshot itself, and the
// ranked top articles.
func (r *PostgresRepository) UpsertSnapshot(ctx context.Context, record domain.CountryRiskRecord) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.upsertCountry(ctx, tx, record); err != nil {
		return err
	}
	if err := r.upsertIndicators(ctx, tx, record); err != nil {
		return err
	}
	if err := r.upsertSnapshotRow(ctx, tx, record); err != nil {
		return err
	}
	if err := r.upsertTopArticles(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) upsertCountry(ctx context.Context, tx *sql.Tx, record domain.CountryRiskRecord) error {
	query, args, err := r.builder.
		Insert("country").
		Columns("iso2", "name").
		Values(record.CountryCode, record.CountryName).
		Suffix("ON CONFLICT (iso2) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build country upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert country: %w", err)
	}
	return nil
}

func (r *PostgresRepository) upsertIndicators(ctx context.Context, tx *sql.Tx, record domain.CountryRiskRecord) error {
	for name, stats := range record.MacroEvidence.Indicators {
		unit := record.MacroEvidence.Meta.Units[name]

		query, args, err := r.builder.
			Insert("indicator").
			Columns("name", "unit").
			Values(name, unit).
			Suffix("ON CONFLICT (name) DO UPDATE SET unit = EXCLUDED.unit RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build indicator upsert: %w", err)
		}

		var indicatorID int64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&indicatorID); err != nil {
			return fmt.Errorf("upsert indicator %s: %w", name, err)
		}

		if err := r.upsertYearlyValues(ctx, tx, record.CountryCode, indicatorID, stats); err != nil {
			return fmt.Errorf("indicator %s: %w", name, err)
		}
	}
	return nil
}

func (r *PostgresRepository) upsertYearlyValues(ctx context.Context, tx *sql.Tx, iso2 string, indicatorID int64, stats domain.IndicatorStats) error {
	if len(stats.Series) == 0 {
		return nil
	}

	insert := r.builder.
		Insert("yearly_value").
		Columns("country_iso2", "indicator_id", "yr", "value")
	for yearStr, value := range stats.Series {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			continue
		}
		insert = insert.Values(iso2, indicatorID, year, value)
	}

	query, args, err := insert.
		Suffix("ON CONFLICT (country_iso2, indicator_id, yr) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build yearly values: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert yearly values: %w", err)
	}
	return nil
}

func (r *PostgresRepository) upsertSnapshotRow(ctx context.Context, tx *sql.Tx, record domain.CountryRiskRecord) error {
	subscores, err := json.Marshal(record.Subscores)
	if err != nil {
		return fmt.Errorf("marshal subscores: %w", err)
	}

	query, args, err := r.builder.
		Insert("risk_snapshot").
		Columns("country_iso2", "as_of", "score", "bullet_summary", "news_flow", "subscores").
		Values(record.CountryCode, record.AsOf, record.Score, record.BulletSummary, record.NewsFlow, subscores).
		Suffix(`ON CONFLICT (country_iso2, as_of) DO UPDATE SET
			score = EXCLUDED.score,
			bullet_summary = EXCLUDED.bullet_summary,
			news_flow = EXCLUDED.news_flow,
			subscores = EXCLUDED.subscores`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build snapshot upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *PostgresRepository) upsertTopArticles(ctx context.Context, tx *sql.Tx, record domain.CountryRiskRecord) error {
	insert := r.builder.
		Insert("risk_snapshot_article").
		Columns("country_iso2", "as_of", "rank", "url", "title", "source", "published_at", "impact", "summary", "image_url")

	rows := 0
	for _, art := range record.TopArticles {
		if art.URL == "" || art.Rank < 1 || art.Rank > 3 {
			continue
		}

		var published any
		if !art.PublishedAt.IsZero() {
			published = art.PublishedAt
		}

		insert = insert.Values(
			record.CountryCode,
			record.AsOf,
			art.Rank,
			art.URL,
			art.Title,
			art.Source,
			published,
			art.Impact,
			art.Summary,
			normalizeImageURL(art.Image),
		)
		rows++
	}
	if rows == 0 {
		return nil
	}

	query, args, err := insert.
		Suffix(`ON CONFLICT (country_iso2, as_of, rank) DO UPDATE SET
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			source = EXCLUDED.source,
			published_at = EXCLUDED.published_at,
			impact = EXCLUDED.impact,
			summary = EXCLUDED.summary,
			image_url = EXCLUDED.image_url,
			updated_at = now()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build article upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert top articles: %w", err)
	}
	return nil
}

// normalizeImageURL keeps only absolute HTTP(S) URLs; anything else is
// stored as NULL.
func normalizeImageURL(image string) any {
	trimmed := strings.TrimSpace(image)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return nil
}
