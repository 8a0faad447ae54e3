package models

import "time"

// SubjectKind distinguishes the two trust score variants.
type SubjectKind string

const (
	SubjectUser      SubjectKind = "user"
	SubjectOrganizer SubjectKind = "organizer"
)

// TrustFactors is the behavioural snapshot a trust score is computed from.
// Missing values default to zero/false; scoring never fails on them.
type TrustFactors struct {
	AccountAgeDays    int  `json:"account_age_days"`
	ApprovedItems     int  `json:"approved_items"`
	RejectedItems     int  `json:"rejected_items"`
	Violations        int  `json:"violations"`
	ReportsReceived   int  `json:"reports_received"`
	ValidReports      int  `json:"valid_reports"`
	ReportsFiled      int  `json:"reports_filed"`
	ModerationActions int  `json:"moderation_actions"`
	VerifiedEmail     bool `json:"verified_email"`
}

// ScoreBreakdown itemises how a trust score was assembled, for auditability.
type ScoreBreakdown struct {
	Base              float64 `json:"base"`
	AccountAgeBonus   float64 `json:"account_age_bonus"`
	ActivityBonus     float64 `json:"activity_bonus"`
	VerificationBonus float64 `json:"verification_bonus"`
	ReportsPenalty    float64 `json:"reports_penalty"`
	ModerationPenalty float64 `json:"moderation_penalty"`
	Final             float64 `json:"final"`
}

// TrustScore is the persisted, wholesale-replaced score record for a subject.
// Organizer rows additionally carry the manual-review flag fields.
type TrustScore struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SubjectKind      SubjectKind    `gorm:"size:16;not null;uniqueIndex:idx_trust_subject" json:"subject_kind"`
	SubjectID        uint           `gorm:"not null;uniqueIndex:idx_trust_subject" json:"subject_id"`
	Score            float64        `gorm:"not null" json:"score"`
	Factors          TrustFactors   `gorm:"embedded;embeddedPrefix:factor_" json:"factors"`
	Breakdown        ScoreBreakdown `gorm:"embedded;embeddedPrefix:breakdown_" json:"breakdown"`
	IsFlagged        bool           `gorm:"not null;default:false;index" json:"is_flagged"`
	FlagReason       string         `gorm:"size:512" json:"flag_reason"`
	FlaggedAt        *time.Time     `json:"flagged_at"`
	LastCalculatedAt time.Time      `json:"last_calculated_at"`
}
