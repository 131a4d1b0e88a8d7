package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db Database
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db}
}

const advisoryColumns = `
	id, source, country, risk_level, date, description, url, scraped_at,
	country_normalized, risk_level_normalized, risk_score, description_cleaned,
	keywords, has_security_concerns, has_safety_concerns, has_serenity_concerns,
	sentiment_score, date_parsed, created_at, updated_at
`

// UpsertAdvisories inserts or updates advisories. The ID is a hash of the
// natural key (source, country, date), so a conflict on ID means a re-scrape
// of the same advisory and the derived fields are refreshed in place.
func (s *PostgresStore) UpsertAdvisories(ctx context.Context, advisories []models.CleanedAdvisory) error {
	if len(advisories) == 0 {
		return nil
	}

	query := `
		INSERT INTO travel_advisories (` + advisoryColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			risk_level = EXCLUDED.risk_level,
			description = EXCLUDED.description,
			url = EXCLUDED.url,
			scraped_at = EXCLUDED.scraped_at,
			country_normalized = EXCLUDED.country_normalized,
			risk_level_normalized = EXCLUDED.risk_level_normalized,
			risk_score = EXCLUDED.risk_score,
			description_cleaned = EXCLUDED.description_cleaned,
			keywords = EXCLUDED.keywords,
			has_security_concerns = EXCLUDED.has_security_concerns,
			has_safety_concerns = EXCLUDED.has_safety_concerns,
			has_serenity_concerns = EXCLUDED.has_serenity_concerns,
			sentiment_score = EXCLUDED.sentiment_score,
			date_parsed = EXCLUDED.date_parsed,
			updated_at = NOW()
	`

	for _, adv := range advisories {
		err := s.db.Exec(ctx, query,
			adv.ID, adv.Source, adv.Country, adv.RiskLevel, adv.Date,
			adv.Description, adv.URL, adv.ScrapedAt,
			adv.CountryNormalized, adv.RiskLevelNormalized, adv.RiskScore,
			adv.DescriptionCleaned, adv.Keywords,
			adv.HasSecurityConcerns, adv.HasSafetyConcerns, adv.HasSerenityConcerns,
			adv.SentimentScore, adv.DateParsed,
		)
		if err != nil {
			return fmt.Errorf("upsert advisory %s: %w", adv.ID, err)
		}
	}

	return nil
}

// QueryAdvisories retrieves advisories based on query parameters.
func (s *PostgresStore) QueryAdvisories(ctx context.Context, q models.AdvisoryQuery) ([]models.CleanedAdvisory, error) {
	query := `SELECT ` + advisoryColumns + ` FROM travel_advisories WHERE 1=1`

	var args []interface{}
	argIndex := 1

	if len(q.IDs) > 0 {
		query += fmt.Sprintf(" AND id = ANY($%d)", argIndex)
		args = append(args, q.IDs)
		argIndex++
	}

	if len(q.Sources) > 0 {
		query += fmt.Sprintf(" AND source = ANY($%d)", argIndex)
		args = append(args, q.Sources)
		argIndex++
	}

	if len(q.Countries) > 0 {
		query += fmt.Sprintf(" AND country_normalized = ANY($%d)", argIndex)
		args = append(args, q.Countries)
		argIndex++
	}

	if len(q.RiskScores) > 0 {
		query += fmt.Sprintf(" AND risk_score = ANY($%d)", argIndex)
		args = append(args, q.RiskScores)
		argIndex++
	}

	if !q.Since.IsZero() {
		query += fmt.Sprintf(" AND scraped_at >= $%d", argIndex)
		args = append(args, q.Since)
		argIndex++
	}

	if !q.Until.IsZero() {
		query += fmt.Sprintf(" AND scraped_at <= $%d", argIndex)
		args = append(args, q.Until)
		argIndex++
	}

	query += " ORDER BY scraped_at DESC, id"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, q.Limit)
		argIndex++
	}

	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, q.Offset)
	}

	rowsInterface, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query advisories: %w", err)
	}

	rows, ok := rowsInterface.(pgx.Rows)
	if !ok {
		return nil, fmt.Errorf("invalid rows type")
	}
	defer rows.Close()

	var advisories []models.CleanedAdvisory
	for rows.Next() {
		adv, err := scanAdvisory(rows)
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, adv)
	}

	return advisories, nil
}

// GetAdvisory retrieves a single advisory by ID. Missing IDs yield (nil, nil).
func (s *PostgresStore) GetAdvisory(ctx context.Context, id string) (*models.CleanedAdvisory, error) {
	query := `SELECT ` + advisoryColumns + ` FROM travel_advisories WHERE id = $1`

	rowInterface := s.db.QueryRow(ctx, query, id)
	row, ok := rowInterface.(pgx.Row)
	if !ok {
		return nil, fmt.Errorf("invalid row type")
	}

	adv, err := scanAdvisory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &adv, nil
}

// Health checks the database connection.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func scanAdvisory(row pgx.Row) (models.CleanedAdvisory, error) {
	var adv models.CleanedAdvisory
	err := row.Scan(
		&adv.ID, &adv.Source, &adv.Country, &adv.RiskLevel, &adv.Date,
		&adv.Description, &adv.URL, &adv.ScrapedAt,
		&adv.CountryNormalized, &adv.RiskLevelNormalized, &adv.RiskScore,
		&adv.DescriptionCleaned, &adv.Keywords,
		&adv.HasSecurityConcerns, &adv.HasSafetyConcerns, &adv.HasSerenityConcerns,
		&adv.SentimentScore, &adv.DateParsed,
		&adv.CreatedAt, &adv.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return adv, err
		}
		return adv, fmt.Errorf("scan advisory: %w", err)
	}
	return adv, nil
}
