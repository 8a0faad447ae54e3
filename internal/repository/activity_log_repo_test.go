package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

func appendActivity(t *testing.T, repo ActivityLogRepository, activityType models.ActivityType, actorID uint, createdAt time.Time) models.ActivityItem {
	t.Helper()
	actor := actorID
	item := models.ActivityItem{
		Type:       activityType,
		ActorID:    &actor,
		TargetType: models.TargetUser,
		TargetID:   77,
		Severity:   models.SeverityInfo,
		CreatedAt:  createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), &item))
	return item
}

func TestActivityCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 2, 14, 9, 30, 0, 123456789, time.UTC)
	cursor := EncodeActivityCursor(at, 42)

	decodedAt, id, err := DecodeActivityCursor(cursor)
	require.NoError(t, err)
	require.True(t, at.Equal(decodedAt))
	require.Equal(t, uint(42), id)

	_, _, err = DecodeActivityCursor("not-a-cursor")
	require.Error(t, err)
}

func TestActivityListNewestFirstWithCursor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 4; i++ {
		appendActivity(t, repo, models.ActivityUserLogin, 1, base.Add(time.Duration(i)*time.Minute))
	}

	items, hasMore, cursor, err := repo.List(context.Background(), ActivityLogFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.True(t, hasMore)
	require.NotEmpty(t, cursor)
	require.True(t, items[0].CreatedAt.After(items[1].CreatedAt), "newest first")

	rest, hasMore, _, err := repo.List(context.Background(), ActivityLogFilter{Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.False(t, hasMore)
	require.True(t, rest[0].CreatedAt.Equal(base))
}

func TestActivityListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)

	base := time.Now().Add(-time.Hour)
	appendActivity(t, repo, models.ActivityUserLogin, 1, base)
	appendActivity(t, repo, models.ActivityReportFiled, 2, base.Add(time.Minute))
	appendActivity(t, repo, models.ActivityReportFiled, 2, base.Add(2*time.Minute))

	actor := uint(2)
	items, _, _, err := repo.List(context.Background(), ActivityLogFilter{
		Types:   []models.ActivityType{models.ActivityReportFiled},
		ActorID: &actor,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, _, _, err = repo.List(context.Background(), ActivityLogFilter{Since: base.Add(90 * time.Second)})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestActivityCounting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)

	now := time.Now()
	appendActivity(t, repo, models.ActivityUserLogin, 1, now.Add(-2*time.Minute))
	appendActivity(t, repo, models.ActivityUserLogin, 1, now.Add(-30*time.Minute))
	appendActivity(t, repo, models.ActivityReportFiled, 2, now.Add(-3*time.Minute))

	count, err := repo.CountBetween(context.Background(), now.Add(-5*time.Minute), now, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	actor := uint(1)
	count, err = repo.CountBetween(context.Background(), now.Add(-5*time.Minute), now, &actor)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, err = repo.CountByTypesSince(context.Background(), 1, []models.ActivityType{models.ActivityUserLogin}, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	count, err = repo.CountTargeting(context.Background(), []models.ActivityType{models.ActivityReportFiled}, models.TargetUser, 77)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	actors, err := repo.DistinctActorsSince(context.Background(), now.Add(-time.Hour))
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{1, 2}, actors)
}
