package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityType identifies the kind of platform event an activity item records.
type ActivityType string

const (
	ActivityUserRegistered     ActivityType = "user_registered"
	ActivityUserLogin          ActivityType = "user_login"
	ActivityUserBanned         ActivityType = "user_banned"
	ActivityHackathonCreated   ActivityType = "hackathon_created"
	ActivityHackathonApproved  ActivityType = "hackathon_approved"
	ActivityHackathonRejected  ActivityType = "hackathon_rejected"
	ActivityHackathonPublished ActivityType = "hackathon_published"
	ActivityHackathonUnpublish ActivityType = "hackathon_unpublished"
	ActivityProjectSubmitted   ActivityType = "project_submitted"
	ActivityTeamCreated        ActivityType = "team_created"
	ActivityTeamJoined         ActivityType = "team_joined"
	ActivityReportFiled        ActivityType = "report_filed"
	ActivityBlogPublished      ActivityType = "blog_published"
	ActivityModerationAction   ActivityType = "moderation_action"
	ActivityOrganizerFlagged   ActivityType = "organizer_flagged"
	ActivityOrganizerUnflagged ActivityType = "organizer_unflagged"
	ActivityOrganizerRevoked   ActivityType = "organizer_revoked"
	ActivitySuspicious         ActivityType = "suspicious_activity"
	ActivityJudgeAssigned      ActivityType = "judge_assigned"
	ActivityCertificateIssued  ActivityType = "certificate_issued"
)

var activityTypes = map[ActivityType]struct{}{
	ActivityUserRegistered:     {},
	ActivityUserLogin:          {},
	ActivityUserBanned:         {},
	ActivityHackathonCreated:   {},
	ActivityHackathonApproved:  {},
	ActivityHackathonRejected:  {},
	ActivityHackathonPublished: {},
	ActivityHackathonUnpublish: {},
	ActivityProjectSubmitted:   {},
	ActivityTeamCreated:        {},
	ActivityTeamJoined:         {},
	ActivityReportFiled:        {},
	ActivityBlogPublished:      {},
	ActivityModerationAction:   {},
	ActivityOrganizerFlagged:   {},
	ActivityOrganizerUnflagged: {},
	ActivityOrganizerRevoked:   {},
	ActivitySuspicious:         {},
	ActivityJudgeAssigned:      {},
	ActivityCertificateIssued:  {},
}

// Valid reports whether the activity type is part of the closed set.
func (t ActivityType) Valid() bool {
	_, ok := activityTypes[t]
	return ok
}

// TargetType identifies the entity kind an event or queue item points at.
type TargetType string

const (
	TargetUser        TargetType = "user"
	TargetOrganizer   TargetType = "organizer"
	TargetHackathon   TargetType = "hackathon"
	TargetProject     TargetType = "project"
	TargetTeam        TargetType = "team"
	TargetReport      TargetType = "report"
	TargetBlog        TargetType = "blog"
	TargetCertificate TargetType = "certificate"
	TargetSystem      TargetType = "system"
)

var targetTypes = map[TargetType]struct{}{
	TargetUser:        {},
	TargetOrganizer:   {},
	TargetHackathon:   {},
	TargetProject:     {},
	TargetTeam:        {},
	TargetReport:      {},
	TargetBlog:        {},
	TargetCertificate: {},
	TargetSystem:      {},
}

// Valid reports whether the target type is part of the closed set.
func (t TargetType) Valid() bool {
	_, ok := targetTypes[t]
	return ok
}

// Severity grades how alarming an activity item is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is one of the known levels.
func (s Severity) Valid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// ActivityItem is one append-only entry in the platform event stream.
// Rows are never updated or deleted; ordering is created_at with id as
// the tie breaker.
type ActivityItem struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Type          ActivityType      `gorm:"column:activity_type;size:64;not null;index" json:"activity_type"`
	ActorID       *uint             `gorm:"index" json:"actor_id"`
	ActorUsername string            `gorm:"size:128" json:"actor_username"`
	ActorEmail    string            `gorm:"size:255" json:"actor_email"`
	TargetType    TargetType        `gorm:"size:32;not null;index" json:"target_type"`
	TargetID      uint              `gorm:"not null;index" json:"target_id"`
	TargetName    string            `gorm:"size:255" json:"target_name"`
	Action        string            `gorm:"size:255" json:"action"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	Severity      Severity          `gorm:"size:16;not null;default:info;index" json:"severity"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
}

// IsSystemEvent reports whether the item was produced without a human actor.
func (a ActivityItem) IsSystemEvent() bool {
	return a.ActorID == nil
}
