package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adperf-monitor/internal/config"
	"github.com/ignite/adperf-monitor/internal/optimizer"
)

func newLocalStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func samplePairs() []optimizer.AudienceOverlapPair {
	return []optimizer.AudienceOverlapPair{
		{
			AudienceA:         optimizer.AudienceBase{ID: "aud-a", Name: "Lookalike 1%", Size: 100000},
			AudienceB:         optimizer.AudienceBase{ID: "aud-b", Name: "Interest: Running", Size: 50000},
			OverlapCount:      22500,
			OverlapPercentage: 45,
		},
		{
			AudienceA:         optimizer.AudienceBase{ID: "aud-b", Name: "Interest: Running", Size: 50000},
			AudienceB:         optimizer.AudienceBase{ID: "aud-c", Name: "Retargeting 30d", Size: 20000},
			OverlapCount:      3000,
			OverlapPercentage: 15,
		},
	}
}

func TestSaveAndGetOverlapPairs(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveOverlapPairs(ctx, "act-7", samplePairs()))

	pairs, err := s.GetOverlapPairs(ctx, "act-7")
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "aud-a", pairs[0].AudienceA.ID)

	// Other accounts are isolated.
	other, err := s.GetOverlapPairs(ctx, "act-9")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFindOverlapPair_EitherOrder(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()
	require.NoError(t, s.SaveOverlapPairs(ctx, "act-7", samplePairs()))

	pair, ok := s.FindOverlapPair(ctx, "act-7", "aud-a", "aud-b")
	require.True(t, ok)
	assert.Equal(t, 45.0, pair.OverlapPercentage)

	// Reversed lookup finds the same entry.
	pair, ok = s.FindOverlapPair(ctx, "act-7", "aud-b", "aud-a")
	require.True(t, ok)
	assert.Equal(t, 45.0, pair.OverlapPercentage)

	_, ok = s.FindOverlapPair(ctx, "act-7", "aud-a", "aud-z")
	assert.False(t, ok)
}

func TestOverlapPairsSurviveReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(config.StorageConfig{Type: "local", LocalPath: dir})
	require.NoError(t, err)
	require.NoError(t, s.SaveOverlapPairs(ctx, "act-7", samplePairs()))

	// A fresh instance over the same directory sees the snapshot.
	reloaded, err := New(config.StorageConfig{Type: "local", LocalPath: dir})
	require.NoError(t, err)

	pairs, err := reloaded.GetOverlapPairs(ctx, "act-7")
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}

func TestRecordAction(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	s.RecordAction(ctx, ActionRecord{
		AccountID:        "act-7",
		RecommendationID: "rec-1",
		Action:           "execute",
		Outcome:          "ok",
	})
	s.RecordAction(ctx, ActionRecord{
		AccountID:        "act-7",
		RecommendationID: "rec-2",
		Action:           "ignore",
		Outcome:          "failed",
		Error:            "platform rejected action",
	})

	actions := s.RecentActions(ctx, "act-7", 10)
	require.Len(t, actions, 2)
	assert.NotEmpty(t, actions[0].ID)
	assert.False(t, actions[0].Timestamp.IsZero())
	assert.Equal(t, "rec-2", actions[1].RecommendationID)
	assert.Equal(t, "platform rejected action", actions[1].Error)
}

func TestRecentActions_Limit(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.RecordAction(ctx, ActionRecord{
			AccountID:        "act-7",
			RecommendationID: "rec-1",
			Action:           "execute",
			Outcome:          "ok",
			Timestamp:        time.Date(2026, 6, 1, i, 0, 0, 0, time.UTC),
		})
	}

	actions := s.RecentActions(ctx, "act-7", 2)
	require.Len(t, actions, 2)
	// Newest last; the limit trims from the front.
	assert.Equal(t, 3, actions[0].Timestamp.Hour())
	assert.Equal(t, 4, actions[1].Timestamp.Hour())
}

func TestActionLogSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(config.StorageConfig{Type: "local", LocalPath: dir})
	require.NoError(t, err)
	s.RecordAction(ctx, ActionRecord{AccountID: "act-7", RecommendationID: "rec-1", Action: "execute", Outcome: "ok"})

	reloaded, err := New(config.StorageConfig{Type: "local", LocalPath: dir})
	require.NoError(t, err)

	actions := reloaded.RecentActions(ctx, "act-7", 10)
	require.Len(t, actions, 1)
	assert.Equal(t, "rec-1", actions[0].RecommendationID)
}
