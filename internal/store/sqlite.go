package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

// SQLiteStore implements Store on a local SQLite file. It serves single-node
// deployments where running PostgreSQL is not worth it; the schema mirrors
// the PostgreSQL one with keywords stored as a JSON array string.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS travel_advisories (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	country TEXT NOT NULL,
	risk_level TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	scraped_at TIMESTAMP NOT NULL,
	country_normalized TEXT NOT NULL DEFAULT '',
	risk_level_normalized TEXT NOT NULL DEFAULT '',
	risk_score INTEGER NOT NULL DEFAULT 0,
	description_cleaned TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '[]',
	has_security_concerns INTEGER NOT NULL DEFAULT 0,
	has_safety_concerns INTEGER NOT NULL DEFAULT 0,
	has_serenity_concerns INTEGER NOT NULL DEFAULT 0,
	sentiment_score REAL NOT NULL DEFAULT 0,
	date_parsed TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_advisories_country ON travel_advisories(country_normalized);
CREATE INDEX IF NOT EXISTS idx_advisories_scraped ON travel_advisories(scraped_at);
CREATE INDEX IF NOT EXISTS idx_advisories_source ON travel_advisories(source);
`

// NewSQLiteStore opens (creating if needed) the SQLite database at path and
// applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// single writer; WAL keeps readers unblocked during pipeline upserts
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertAdvisories inserts or updates advisories by ID.
func (s *SQLiteStore) UpsertAdvisories(ctx context.Context, advisories []models.CleanedAdvisory) error {
	if len(advisories) == 0 {
		return nil
	}

	query := `
		INSERT INTO travel_advisories (
			id, source, country, risk_level, date, description, url, scraped_at,
			country_normalized, risk_level_normalized, risk_score, description_cleaned,
			keywords, has_security_concerns, has_safety_concerns, has_serenity_concerns,
			sentiment_score, date_parsed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			risk_level = excluded.risk_level,
			description = excluded.description,
			url = excluded.url,
			scraped_at = excluded.scraped_at,
			country_normalized = excluded.country_normalized,
			risk_level_normalized = excluded.risk_level_normalized,
			risk_score = excluded.risk_score,
			description_cleaned = excluded.description_cleaned,
			keywords = excluded.keywords,
			has_security_concerns = excluded.has_security_concerns,
			has_safety_concerns = excluded.has_safety_concerns,
			has_serenity_concerns = excluded.has_serenity_concerns,
			sentiment_score = excluded.sentiment_score,
			date_parsed = excluded.date_parsed,
			updated_at = excluded.updated_at
	`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	for _, adv := range advisories {
		keywords, err := json.Marshal(advKeywords(adv))
		if err != nil {
			return fmt.Errorf("marshal keywords for %s: %w", adv.ID, err)
		}

		var dateParsed interface{}
		if adv.DateParsed != nil {
			dateParsed = adv.DateParsed.UTC()
		}

		_, err = tx.ExecContext(ctx, query,
			adv.ID, adv.Source, adv.Country, adv.RiskLevel, adv.Date,
			adv.Description, adv.URL, adv.ScrapedAt.UTC(),
			adv.CountryNormalized, adv.RiskLevelNormalized, adv.RiskScore,
			adv.DescriptionCleaned, string(keywords),
			adv.HasSecurityConcerns, adv.HasSafetyConcerns, adv.HasSerenityConcerns,
			adv.SentimentScore, dateParsed,
			adv.CreatedAt.UTC(), adv.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upsert advisory %s: %w", adv.ID, err)
		}
	}

	return tx.Commit()
}

// QueryAdvisories retrieves advisories based on query parameters.
func (s *SQLiteStore) QueryAdvisories(ctx context.Context, q models.AdvisoryQuery) ([]models.CleanedAdvisory, error) {
	query := `
		SELECT id, source, country, risk_level, date, description, url, scraped_at,
			   country_normalized, risk_level_normalized, risk_score, description_cleaned,
			   keywords, has_security_concerns, has_safety_concerns, has_serenity_concerns,
			   sentiment_score, date_parsed, created_at, updated_at
		FROM travel_advisories
		WHERE 1=1
	`

	var args []interface{}

	if len(q.IDs) > 0 {
		query += " AND id IN (" + placeholders(len(q.IDs)) + ")"
		for _, id := range q.IDs {
			args = append(args, id)
		}
	}

	if len(q.Sources) > 0 {
		query += " AND source IN (" + placeholders(len(q.Sources)) + ")"
		for _, src := range q.Sources {
			args = append(args, src)
		}
	}

	if len(q.Countries) > 0 {
		query += " AND country_normalized IN (" + placeholders(len(q.Countries)) + ")"
		for _, c := range q.Countries {
			args = append(args, c)
		}
	}

	if len(q.RiskScores) > 0 {
		query += " AND risk_score IN (" + placeholders(len(q.RiskScores)) + ")"
		for _, sc := range q.RiskScores {
			args = append(args, sc)
		}
	}

	if !q.Since.IsZero() {
		query += " AND scraped_at >= ?"
		args = append(args, q.Since.UTC())
	}

	if !q.Until.IsZero() {
		query += " AND scraped_at <= ?"
		args = append(args, q.Until.UTC())
	}

	query += " ORDER BY scraped_at DESC, id"

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	if q.Offset > 0 {
		if q.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query advisories: %w", err)
	}
	defer rows.Close()

	var advisories []models.CleanedAdvisory
	for rows.Next() {
		adv, err := scanSQLiteAdvisory(rows)
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, adv)
	}

	return advisories, rows.Err()
}

// GetAdvisory retrieves a single advisory by ID. Missing IDs yield (nil, nil).
func (s *SQLiteStore) GetAdvisory(ctx context.Context, id string) (*models.CleanedAdvisory, error) {
	advisories, err := s.QueryAdvisories(ctx, models.AdvisoryQuery{IDs: []string{id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(advisories) == 0 {
		return nil, nil
	}
	return &advisories[0], nil
}

// Health pings the database file.
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanSQLiteAdvisory(rows *sql.Rows) (models.CleanedAdvisory, error) {
	var adv models.CleanedAdvisory
	var keywords string
	var dateParsed sql.NullTime

	err := rows.Scan(
		&adv.ID, &adv.Source, &adv.Country, &adv.RiskLevel, &adv.Date,
		&adv.Description, &adv.URL, &adv.ScrapedAt,
		&adv.CountryNormalized, &adv.RiskLevelNormalized, &adv.RiskScore,
		&adv.DescriptionCleaned, &keywords,
		&adv.HasSecurityConcerns, &adv.HasSafetyConcerns, &adv.HasSerenityConcerns,
		&adv.SentimentScore, &dateParsed,
		&adv.CreatedAt, &adv.UpdatedAt,
	)
	if err != nil {
		return adv, fmt.Errorf("scan advisory: %w", err)
	}

	if err := json.Unmarshal([]byte(keywords), &adv.Keywords); err != nil {
		return adv, fmt.Errorf("unmarshal keywords for %s: %w", adv.ID, err)
	}
	if dateParsed.Valid {
		t := dateParsed.Time.UTC()
		adv.DateParsed = &t
	}

	return adv, nil
}

// advKeywords guarantees a non-nil slice so the JSON column is always an
// array.
func advKeywords(adv models.CleanedAdvisory) []string {
	if adv.Keywords == nil {
		return []string{}
	}
	return adv.Keywords
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
