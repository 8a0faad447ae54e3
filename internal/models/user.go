package models

import "time"

// Role values used by the moderation core. Role changes performed here are
// limited to the organizer demotion done by the revoke workflow.
const (
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
	RoleModerator   = "moderator"
	RoleAdmin       = "admin"
)

// User is the minimal profile the trust scorer and revoke workflow read.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:128;uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role          string    `gorm:"size:32;not null;default:participant;index" json:"role"`
	VerifiedEmail bool      `gorm:"not null;default:false" json:"verified_email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
