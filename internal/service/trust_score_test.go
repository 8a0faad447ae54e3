package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

func TestComputeTrustScoreNeutralBaseline(t *testing.T) {
	breakdown := ComputeTrustScore(models.TrustFactors{}, models.SubjectUser)
	require.Equal(t, 50.0, breakdown.Base)
	require.Equal(t, 50.0, breakdown.Final)
}

func TestComputeTrustScoreIsDeterministic(t *testing.T) {
	factors := models.TrustFactors{
		AccountAgeDays:    120,
		ApprovedItems:     4,
		ReportsReceived:   3,
		ValidReports:      1,
		ModerationActions: 1,
		VerifiedEmail:     true,
	}

	first := ComputeTrustScore(factors, models.SubjectUser)
	second := ComputeTrustScore(factors, models.SubjectUser)
	require.Equal(t, first, second)
}

func TestComputeTrustScoreBonusesSaturate(t *testing.T) {
	factors := models.TrustFactors{
		AccountAgeDays: 4000,
		ApprovedItems:  500,
		VerifiedEmail:  true,
	}

	breakdown := ComputeTrustScore(factors, models.SubjectUser)
	require.Equal(t, 15.0, breakdown.AccountAgeBonus)
	require.Equal(t, 20.0, breakdown.ActivityBonus)
	require.Equal(t, 5.0, breakdown.VerificationBonus)
	require.Equal(t, 90.0, breakdown.Final)
}

func TestComputeTrustScoreVerificationBonusIsUserOnly(t *testing.T) {
	factors := models.TrustFactors{VerifiedEmail: true}

	asUser := ComputeTrustScore(factors, models.SubjectUser)
	asOrganizer := ComputeTrustScore(factors, models.SubjectOrganizer)

	require.Equal(t, 5.0, asUser.VerificationBonus)
	require.Equal(t, 0.0, asOrganizer.VerificationBonus)
}

func TestComputeTrustScoreUpheldReportsWeighDouble(t *testing.T) {
	allPending := ComputeTrustScore(models.TrustFactors{ReportsReceived: 4}, models.SubjectUser)
	allUpheld := ComputeTrustScore(models.TrustFactors{ReportsReceived: 4, ValidReports: 4}, models.SubjectUser)

	require.Equal(t, 4.0, allPending.ReportsPenalty)
	require.Equal(t, 8.0, allUpheld.ReportsPenalty)
}

func TestComputeTrustScoreStaysInsideBounds(t *testing.T) {
	grid := []models.TrustFactors{
		{},
		{AccountAgeDays: -50},
		{AccountAgeDays: 10000, ApprovedItems: 1000, VerifiedEmail: true},
		{ReportsReceived: 1000, ValidReports: 1000, ModerationActions: 1000},
		{ReportsReceived: 3, ValidReports: 9}, // valid capped at received
		{AccountAgeDays: 365, ApprovedItems: 10, ReportsReceived: 50, ValidReports: 25, ModerationActions: 8, VerifiedEmail: true},
	}

	for _, factors := range grid {
		for _, kind := range []models.SubjectKind{models.SubjectUser, models.SubjectOrganizer} {
			breakdown := ComputeTrustScore(factors, kind)
			require.GreaterOrEqual(t, breakdown.Final, 0.0, "factors %+v", factors)
			require.LessOrEqual(t, breakdown.Final, 100.0, "factors %+v", factors)
		}
	}
}

func TestShouldFlagOrganizerHardRule(t *testing.T) {
	rules := DefaultTrustRules()

	flagged, reason := ShouldFlagOrganizer(models.TrustFactors{RejectedItems: 3}, rules)
	require.True(t, flagged)
	require.Contains(t, reason, "rejected")

	flagged, reason = ShouldFlagOrganizer(models.TrustFactors{Violations: 5}, rules)
	require.True(t, flagged)
	require.Contains(t, reason, "violations")

	flagged, _ = ShouldFlagOrganizer(models.TrustFactors{RejectedItems: 2, Violations: 4}, rules)
	require.False(t, flagged)
}

func TestShouldFlagOrganizerIgnoresHighScore(t *testing.T) {
	// A long-standing, productive organizer still trips the hard rule.
	factors := models.TrustFactors{
		AccountAgeDays: 900,
		ApprovedItems:  30,
		RejectedItems:  3,
	}

	breakdown := ComputeTrustScore(factors, models.SubjectOrganizer)
	require.GreaterOrEqual(t, breakdown.Final, 80.0)

	flagged, _ := ShouldFlagOrganizer(factors, DefaultTrustRules())
	require.True(t, flagged)
}
