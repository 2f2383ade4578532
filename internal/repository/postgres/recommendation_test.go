package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adperf-monitor/internal/optimizer"
)

var recColumns = []string{
	"id", "type", "priority_score", "title", "description",
	"action_module", "estimated_impact", "status", "snooze_until",
}

func TestRecommendationRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecommendationRepo(db)

	snoozeUntil := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, type, priority_score").
		WithArgs("rec-1", "act-7").
		WillReturnRows(sqlmock.NewRows(recColumns).AddRow(
			"rec-1", "pause_creative", 85, "Pause fatigued creative", "CTR down 30%",
			"creative-control", 420.0, "snoozed", snoozeUntil,
		))

	rec, err := repo.Get(context.Background(), "act-7", "rec-1")
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, optimizer.TypePauseCreative, rec.Type)
	assert.Equal(t, 85, rec.PriorityScore)
	assert.Equal(t, optimizer.StatusSnoozed, rec.Status)
	require.NotNil(t, rec.SnoozeUntil)
	assert.Equal(t, snoozeUntil, *rec.SnoozeUntil)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepo_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecommendationRepo(db)

	mock.ExpectQuery("SELECT id, type, priority_score").
		WithArgs("missing", "act-7").
		WillReturnRows(sqlmock.NewRows(recColumns))

	_, err = repo.Get(context.Background(), "act-7", "missing")
	assert.ErrorIs(t, err, optimizer.ErrNotFound)
}

func TestRecommendationRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecommendationRepo(db)

	mock.ExpectQuery("SELECT id, type, priority_score").
		WithArgs("act-7").
		WillReturnRows(sqlmock.NewRows(recColumns).
			AddRow("rec-1", "pause_creative", 90, "Pause creative", "", "creative-control", 420.0, "pending", nil).
			AddRow("rec-2", "exclude_audience", 75, "Exclude overlap", "", "audience-targeting", 180.0, "pending", nil))

	recs, err := repo.List(context.Background(), "act-7", "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec-1", recs[0].ID)
	assert.Nil(t, recs[0].SnoozeUntil)
	assert.Equal(t, optimizer.TypeExcludeAudience, recs[1].Type)
}

func TestRecommendationRepo_ListFilteredByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecommendationRepo(db)

	mock.ExpectQuery("SELECT id, type, priority_score").
		WithArgs("act-7", "pending").
		WillReturnRows(sqlmock.NewRows(recColumns).
			AddRow("rec-1", "pause_creative", 90, "Pause creative", "", "creative-control", 420.0, "pending", nil))

	recs, err := repo.List(context.Background(), "act-7", optimizer.StatusPending)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, optimizer.StatusPending, recs[0].Status)
}

func TestRecommendationRepo_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecommendationRepo(db)

	rec := &optimizer.Recommendation{ID: "rec-1", Status: optimizer.StatusExecuted}
	mock.ExpectExec("UPDATE recommendations").
		WithArgs("executed", nil, "rec-1", "act-7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "act-7", rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepo_UpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecommendationRepo(db)

	rec := &optimizer.Recommendation{ID: "gone", Status: optimizer.StatusIgnored}
	mock.ExpectExec("UPDATE recommendations").
		WithArgs("ignored", nil, "gone", "act-7").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "act-7", rec), optimizer.ErrNotFound)
}
