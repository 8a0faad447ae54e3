package models

import "time"

// Hackathon lifecycle states relevant to trust scoring and the revoke
// workflow. The full CRUD surface lives outside the moderation core.
const (
	HackathonStatusDraft    = "draft"
	HackathonStatusPending  = "pending"
	HackathonStatusApproved = "approved"
	HackathonStatusRejected = "rejected"
)

// Hackathon is the slice of the hackathon record the moderation core reads
// and, during a revoke, unpublishes. ParticipantCount is denormalised by the
// registration pipeline and only read here for notification totals.
type Hackathon struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	OrganizerID      uint       `gorm:"not null;index" json:"organizer_id"`
	Status           string     `gorm:"size:32;not null;default:draft;index" json:"status"`
	IsPublished      bool       `gorm:"not null;default:false;index" json:"is_published"`
	PublishedAt      *time.Time `json:"published_at"`
	ParticipantCount int        `gorm:"not null;default:0" json:"participant_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
