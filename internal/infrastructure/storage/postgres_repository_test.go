package storage

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"countryrisk/internal/domain"
)

func sampleRecord() domain.CountryRiskRecord {
	score := 0.42
	flow := 0.3
	impact := 0.8
	latest := 20.0

	return domain.CountryRiskRecord{
		CountryCode: "BR",
		CountryName: "Brazil",
		AsOf:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		MacroEvidence: domain.MacroPayload{
			Country:    "BR",
			LatestYear: 2023,
			Indicators: map[string]domain.IndicatorStats{
				"Inflation (% y/y)": {
					Latest: &latest,
					Series: map[string]float64{"2023": 20.0},
				},
			},
			Meta: domain.MacroMeta{
				Units:  map[string]string{"Inflation (% y/y)": "% y/y"},
				Source: "World Bank",
			},
		},
		Subscores:     map[string]*float64{"conflict_war": &score},
		Score:         &score,
		NewsFlow:      &flow,
		BulletSummary: "stable",
		TopArticles: []domain.TopArticle{
			{
				Rank:        1,
				URL:         "https://pub.example.com/a",
				Title:       "A",
				Source:      "Reuters",
				PublishedAt: time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC),
				Impact:      &impact,
				Summary:     "s",
				Image:       "https://cdn.example.com/a.jpg",
			},
		},
	}
}

func TestUpsertSnapshotWritesAllTables(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO country").
		WithArgs("BR", "Brazil").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO indicator").
		WithArgs("Inflation (% y/y)", "% y/y").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec("INSERT INTO yearly_value").
		WithArgs("BR", int64(7), 2023, 20.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO risk_snapshot ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO risk_snapshot_article").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresRepository(db)
	if err := repo.UpsertSnapshot(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("UpsertSnapshot error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertSnapshotSkipsInvalidArticles(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	record := sampleRecord()
	record.MacroEvidence.Indicators = nil
	record.TopArticles = []domain.TopArticle{
		{Rank: 1, URL: ""},  // no URL
		{Rank: 9, URL: "x"}, // rank out of range
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO country").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO risk_snapshot ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// No article insert expected.
	mock.ExpectCommit()

	repo := NewPostgresRepository(db)
	if err := repo.UpsertSnapshot(context.Background(), record); err != nil {
		t.Fatalf("UpsertSnapshot error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertSnapshotRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	record := sampleRecord()
	record.MacroEvidence.Indicators = nil
	record.TopArticles = nil

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO country").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	repo := NewPostgresRepository(db)
	if err := repo.UpsertSnapshot(context.Background(), record); err == nil {
		t.Fatal("expected error to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNormalizeImageURL(t *testing.T) {
	t.Parallel()

	if got := normalizeImageURL("https://cdn.example.com/x.jpg"); got != "https://cdn.example.com/x.jpg" {
		t.Fatalf("expected URL kept, got %v", got)
	}
	if got := normalizeImageURL("data:image/png;base64,xxx"); got != nil {
		t.Fatalf("expected nil for non-http value, got %v", got)
	}
	if got := normalizeImageURL(""); got != nil {
		t.Fatalf("expected nil for empty value, got %v", got)
	}
}

func TestUpsertSnapshotNilDBIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)
	if err := repo.UpsertSnapshot(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("expected noop without db, got %v", err)
	}
}
