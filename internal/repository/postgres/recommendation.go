package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/adperf-monitor/internal/optimizer"
)

// RecommendationRepo loads recommendations produced by the offline analysis
// pipeline and persists the status transitions the engine makes. It never
// inserts new recommendations; generation happens upstream.
type RecommendationRepo struct{ db *sql.DB }

// NewRecommendationRepo creates a Postgres-backed recommendation repository.
func NewRecommendationRepo(db *sql.DB) *RecommendationRepo { return &RecommendationRepo{db: db} }

func (r *RecommendationRepo) Get(ctx context.Context, accountID, id string) (*optimizer.Recommendation, error) {
	rec := &optimizer.Recommendation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, type, priority_score, title, COALESCE(description,''),
		       action_module, estimated_impact, status, snooze_until
		FROM recommendations
		WHERE id = $1 AND account_id = $2
	`, id, accountID).Scan(
		&rec.ID, &rec.Type, &rec.PriorityScore, &rec.Title, &rec.Description,
		&rec.ActionModule, &rec.EstimatedImpact, &rec.Status, &rec.SnoozeUntil,
	)
	if err == sql.ErrNoRows {
		return nil, optimizer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return rec, nil
}

// List returns an account's recommendations ordered by priority. Status
// filtering is optional; an empty status returns everything.
func (r *RecommendationRepo) List(ctx context.Context, accountID string, status optimizer.RecommendationStatus) ([]*optimizer.Recommendation, error) {
	q := `
		SELECT id, type, priority_score, title, COALESCE(description,''),
		       action_module, estimated_impact, status, snooze_until
		FROM recommendations
		WHERE account_id = $1`

	args := []interface{}{accountID}
	if status != "" {
		q += " AND status = $2"
		args = append(args, status)
	}
	q += " ORDER BY priority_score DESC, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var out []*optimizer.Recommendation
	for rows.Next() {
		rec := &optimizer.Recommendation{}
		if err := rows.Scan(
			&rec.ID, &rec.Type, &rec.PriorityScore, &rec.Title, &rec.Description,
			&rec.ActionModule, &rec.EstimatedImpact, &rec.Status, &rec.SnoozeUntil,
		); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return out, nil
}

// UpdateStatus persists a status transition. snooze_until is written as-is,
// so non-snooze transitions clear it with a nil value.
func (r *RecommendationRepo) UpdateStatus(ctx context.Context, accountID string, rec *optimizer.Recommendation) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recommendations
		SET status = $1, snooze_until = $2, updated_at = NOW()
		WHERE id = $3 AND account_id = $4
	`, rec.Status, rec.SnoozeUntil, rec.ID, accountID)
	if err != nil {
		return fmt.Errorf("update recommendation status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recommendation status: %w", err)
	}
	if n == 0 {
		return optimizer.ErrNotFound
	}
	return nil
}
