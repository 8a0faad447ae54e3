package dto

import (
	"time"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

// TrustBreakdownResponse itemises the score arithmetic for auditability.
type TrustBreakdownResponse struct {
	Base              float64 `json:"base"`
	AccountAgeBonus   float64 `json:"account_age_bonus"`
	ActivityBonus     float64 `json:"activity_bonus"`
	VerificationBonus float64 `json:"verification_bonus"`
	ReportsPenalty    float64 `json:"reports_penalty"`
	ModerationPenalty float64 `json:"moderation_penalty"`
	Final             float64 `json:"final"`
}

// TrustScoreResponse serialises a trust score record. Flag fields are only
// meaningful for the organizer variant.
type TrustScoreResponse struct {
	SubjectKind      string                 `json:"subject_kind"`
	SubjectID        uint                   `json:"subject_id"`
	Score            float64                `json:"score"`
	Factors          models.TrustFactors    `json:"factors"`
	Breakdown        TrustBreakdownResponse `json:"breakdown"`
	IsFlagged        bool                   `json:"is_flagged"`
	FlagReason       string                 `json:"flag_reason,omitempty"`
	FlaggedAt        *time.Time             `json:"flagged_at,omitempty"`
	LastCalculatedAt time.Time              `json:"last_calculated_at"`
}

// NewTrustScoreResponse converts a trust score model into its API shape.
func NewTrustScoreResponse(score models.TrustScore) TrustScoreResponse {
	return TrustScoreResponse{
		SubjectKind: string(score.SubjectKind),
		SubjectID:   score.SubjectID,
		Score:       score.Score,
		Factors:     score.Factors,
		Breakdown: TrustBreakdownResponse{
			Base:              score.Breakdown.Base,
			AccountAgeBonus:   score.Breakdown.AccountAgeBonus,
			ActivityBonus:     score.Breakdown.ActivityBonus,
			VerificationBonus: score.Breakdown.VerificationBonus,
			ReportsPenalty:    score.Breakdown.ReportsPenalty,
			ModerationPenalty: score.Breakdown.ModerationPenalty,
			Final:             score.Breakdown.Final,
		},
		IsFlagged:        score.IsFlagged,
		FlagReason:       score.FlagReason,
		FlaggedAt:        score.FlaggedAt,
		LastCalculatedAt: score.LastCalculatedAt,
	}
}
