// Package spend provides per-audience spend and CPA figures for impact
// estimation. Data originates in the reporting warehouse and is served
// through a Redis read-through cache; audiences without spend rows are
// reported as absent data, never as errors.
package spend

import (
	"context"
	"database/sql"
	"fmt"
)

// Figures holds one audience's spend metrics. Nil fields mean the warehouse
// has no figure for that metric.
type Figures struct {
	Spend *float64 `json:"spend"`
	CPA   *float64 `json:"cpa"`
}

// Source supplies spend figures for a single audience.
type Source interface {
	AudienceFigures(ctx context.Context, accountID, audienceID string) (Figures, error)
}

// PostgresSource reads spend figures from the reporting tables.
type PostgresSource struct{ db *sql.DB }

// NewPostgresSource creates a warehouse-backed spend source.
func NewPostgresSource(db *sql.DB) *PostgresSource { return &PostgresSource{db: db} }

// AudienceFigures returns the latest spend and CPA for an audience. A missing
// row yields empty Figures with no error.
func (s *PostgresSource) AudienceFigures(ctx context.Context, accountID, audienceID string) (Figures, error) {
	var f Figures
	err := s.db.QueryRowContext(ctx, `
		SELECT spend, cpa
		FROM audience_spend
		WHERE account_id = $1 AND audience_id = $2
		ORDER BY reported_at DESC
		LIMIT 1
	`, accountID, audienceID).Scan(&f.Spend, &f.CPA)
	if err == sql.ErrNoRows {
		return Figures{}, nil
	}
	if err != nil {
		return Figures{}, fmt.Errorf("audience spend: %w", err)
	}
	return f, nil
}
