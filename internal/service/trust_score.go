package service

import (
	"fmt"
	"math"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

// Trust scoring weights. The score starts from a neutral base and moves by
// bounded, saturating bonuses and penalties so that no single factor can
// push a subject outside the 0..100 band on its own.
const (
	trustBaseScore = 50.0

	// Account age saturates at one year.
	accountAgeBonusMax = 15.0
	accountAgeFullDays = 365.0

	// Approved hackathons / accepted projects, two points each.
	activityBonusPerItem = 2.0
	activityBonusMax     = 20.0

	verificationBonus = 5.0

	// Reports upheld by moderators weigh double the unresolved ones.
	validReportPenalty   = 2.0
	pendingReportPenalty = 1.0
	reportsPenaltyMax    = 30.0

	// Each moderation action against the subject weighs heavier than any
	// single report.
	moderationPenaltyPerAction = 5.0
	moderationPenaltyMax       = 40.0
)

// TrustRules carries the hard-rule thresholds layered on top of the
// continuous score.
type TrustRules struct {
	FlagRejectedThreshold  int
	FlagViolationThreshold int
}

// DefaultTrustRules returns the thresholds used when none are configured.
func DefaultTrustRules() TrustRules {
	return TrustRules{
		FlagRejectedThreshold:  3,
		FlagViolationThreshold: 5,
	}
}

// ComputeTrustScore derives a bounded score and its breakdown from a factor
// snapshot. It is a pure function: identical factors always produce an
// identical result, and missing factors simply contribute zero.
func ComputeTrustScore(factors models.TrustFactors, kind models.SubjectKind) models.ScoreBreakdown {
	breakdown := models.ScoreBreakdown{Base: trustBaseScore}

	breakdown.AccountAgeBonus = accountAgeBonus(factors.AccountAgeDays)
	breakdown.ActivityBonus = math.Min(float64(factors.ApprovedItems)*activityBonusPerItem, activityBonusMax)
	if kind == models.SubjectUser && factors.VerifiedEmail {
		breakdown.VerificationBonus = verificationBonus
	}

	breakdown.ReportsPenalty = reportsPenalty(factors.ReportsReceived, factors.ValidReports)
	breakdown.ModerationPenalty = math.Min(float64(factors.ModerationActions)*moderationPenaltyPerAction, moderationPenaltyMax)

	raw := breakdown.Base +
		breakdown.AccountAgeBonus +
		breakdown.ActivityBonus +
		breakdown.VerificationBonus -
		breakdown.ReportsPenalty -
		breakdown.ModerationPenalty
	breakdown.Final = clampScore(raw)

	return breakdown
}

// ShouldFlagOrganizer applies the hard auto-flag rule. It is independent of
// the continuous score: a high-scoring organizer still gets flagged once the
// rejection or violation thresholds are crossed.
func ShouldFlagOrganizer(factors models.TrustFactors, rules TrustRules) (bool, string) {
	if rules.FlagRejectedThreshold > 0 && factors.RejectedItems >= rules.FlagRejectedThreshold {
		return true, fmt.Sprintf("rejected hackathons reached threshold (%d/%d)", factors.RejectedItems, rules.FlagRejectedThreshold)
	}
	if rules.FlagViolationThreshold > 0 && factors.Violations >= rules.FlagViolationThreshold {
		return true, fmt.Sprintf("violations reached threshold (%d/%d)", factors.Violations, rules.FlagViolationThreshold)
	}
	return false, ""
}

// accountAgeBonus grows linearly and saturates at accountAgeFullDays.
func accountAgeBonus(days int) float64 {
	if days <= 0 {
		return 0
	}
	return math.Min(float64(days)/accountAgeFullDays, 1.0) * accountAgeBonusMax
}

// reportsPenalty weighs upheld reports double: a report a moderator resolved
// against the subject is more credible than one still waiting in the queue.
func reportsPenalty(received, valid int) float64 {
	if received <= 0 {
		return 0
	}
	if valid > received {
		valid = received
	}
	pending := received - valid
	penalty := float64(valid)*validReportPenalty + float64(pending)*pendingReportPenalty
	return math.Min(penalty, reportsPenaltyMax)
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
