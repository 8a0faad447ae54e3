package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
)

func newTrustFixture(t *testing.T) (TrustService, *gorm.DB) {
	t.Helper()
	db := setupServiceDB(t)
	svc := NewTrustService(
		repository.NewTrustScoreRepository(db),
		repository.NewUserRepository(db),
		repository.NewHackathonRepository(db),
		repository.NewActivityLogRepository(db),
		repository.NewQueueRepository(db),
		nil,
		time.Minute,
		DefaultTrustRules(),
		testLogger(),
	)
	return svc, db
}

func TestRecomputeUserAssemblesFactors(t *testing.T) {
	svc, db := newTrustFixture(t)

	user := models.User{Username: "dana", Email: "dana@example.com", Role: models.RoleParticipant, VerifiedEmail: true, CreatedAt: time.Now().Add(-365 * 24 * time.Hour)}
	require.NoError(t, db.Create(&user).Error)

	for i := 0; i < 3; i++ {
		item := models.ActivityItem{
			Type:       models.ActivityProjectSubmitted,
			ActorID:    &user.ID,
			TargetType: models.TargetProject,
			TargetID:   uint(i + 1),
			Severity:   models.SeverityInfo,
		}
		require.NoError(t, db.Create(&item).Error)
	}

	score, err := svc.RecomputeUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "user", score.SubjectKind)
	require.Equal(t, 3, score.Factors.ApprovedItems)
	require.True(t, score.Factors.VerifiedEmail)
	require.GreaterOrEqual(t, score.Factors.AccountAgeDays, 364)
	// 50 base + 15 age + 6 activity + 5 verification
	require.Equal(t, 76.0, score.Score)
}

func TestRecomputeUnknownSubject(t *testing.T) {
	svc, _ := newTrustFixture(t)

	_, err := svc.RecomputeUser(context.Background(), 12345)
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestRecomputeOrganizerAutoFlagsOnRejections(t *testing.T) {
	svc, db := newTrustFixture(t)

	organizer := models.User{Username: "rex", Email: "rex@example.com", Role: models.RoleOrganizer, CreatedAt: time.Now().Add(-900 * 24 * time.Hour)}
	require.NoError(t, db.Create(&organizer).Error)

	for i := 0; i < 3; i++ {
		hackathon := models.Hackathon{Title: "Rejected Jam", OrganizerID: organizer.ID, Status: models.HackathonStatusRejected}
		require.NoError(t, db.Create(&hackathon).Error)
	}

	score, err := svc.RecomputeOrganizer(context.Background(), organizer.ID)
	require.NoError(t, err)
	require.True(t, score.IsFlagged, "three rejections trip the hard rule regardless of score")
	require.Contains(t, score.FlagReason, "rejected")
	require.Equal(t, 3, score.Factors.RejectedItems)
}

func TestRecomputePreservesManualFlag(t *testing.T) {
	svc, db := newTrustFixture(t)

	organizer := models.User{Username: "lena", Email: "lena@example.com", Role: models.RoleOrganizer, CreatedAt: time.Now().Add(-400 * 24 * time.Hour)}
	require.NoError(t, db.Create(&organizer).Error)

	flaggedAt := time.Now().Add(-time.Hour)
	record := models.TrustScore{
		SubjectKind:      models.SubjectOrganizer,
		SubjectID:        organizer.ID,
		IsFlagged:        true,
		FlagReason:       "manual review requested",
		FlaggedAt:        &flaggedAt,
		LastCalculatedAt: flaggedAt,
	}
	require.NoError(t, repository.NewTrustScoreRepository(db).Upsert(context.Background(), &record))

	// Nothing in the organizer's history trips the hard rule, but the
	// recompute still must not clear the standing flag.
	score, err := svc.RecomputeOrganizer(context.Background(), organizer.ID)
	require.NoError(t, err)
	require.True(t, score.IsFlagged)
	require.Equal(t, "manual review requested", score.FlagReason)
}

func TestRecomputeCountsUpheldReports(t *testing.T) {
	svc, db := newTrustFixture(t)

	user := models.User{Username: "troll", Email: "troll@example.com", Role: models.RoleParticipant, CreatedAt: time.Now().Add(-30 * 24 * time.Hour)}
	require.NoError(t, db.Create(&user).Error)

	reporter := uint(900)
	for i := 0; i < 2; i++ {
		item := models.ActivityItem{
			Type:       models.ActivityReportFiled,
			ActorID:    &reporter,
			TargetType: models.TargetUser,
			TargetID:   user.ID,
			Severity:   models.SeverityInfo,
		}
		require.NoError(t, db.Create(&item).Error)
	}

	resolution := models.ResolutionRejected
	resolvedAt := time.Now()
	queueItem := models.QueueItem{
		ItemType:   models.QueueItemUser,
		Priority:   5,
		Title:      "Abusive behaviour",
		TargetType: models.TargetUser,
		TargetID:   user.ID,
		Status:     models.QueueStatusResolved,
		Resolution: &resolution,
		ResolvedAt: &resolvedAt,
	}
	require.NoError(t, db.Create(&queueItem).Error)

	score, err := svc.RecomputeUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 2, score.Factors.ReportsReceived)
	require.Equal(t, 1, score.Factors.ValidReports)
}

func TestGetWithoutComputedScore(t *testing.T) {
	svc, _ := newTrustFixture(t)

	_, err := svc.Get(context.Background(), models.SubjectUser, 55)
	require.ErrorIs(t, err, ErrTrustScoreNotFound)
}

func TestCurrentScoreFallsBackToStore(t *testing.T) {
	svc, db := newTrustFixture(t)

	record := models.TrustScore{SubjectKind: models.SubjectUser, SubjectID: 8, Score: 62.5, LastCalculatedAt: time.Now()}
	require.NoError(t, repository.NewTrustScoreRepository(db).Upsert(context.Background(), &record))

	score, ok := svc.CurrentScore(context.Background(), models.SubjectUser, 8)
	require.True(t, ok)
	require.Equal(t, 62.5, score)

	_, ok = svc.CurrentScore(context.Background(), models.SubjectUser, 999)
	require.False(t, ok)
}
