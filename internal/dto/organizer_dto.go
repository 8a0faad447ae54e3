package dto

// FlagOrganizerRequest marks an organizer for mandatory manual review.
type FlagOrganizerRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=512"`
}

// UnflagOrganizerRequest clears the flag; the reason is recorded in the
// activity log only, not on the trust record.
type UnflagOrganizerRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=512"`
}

// RevokeOrganizerRequest drives the privilege revocation workflow.
type RevokeOrganizerRequest struct {
	Reason             string `json:"reason" validate:"required,min=3,max=512"`
	NotifyOrganizer    bool   `json:"notify_organizer"`
	NotifyParticipants bool   `json:"notify_participants"`
}

// RevokeOrganizerResponse summarises the revoke outcome. NotifyErrors carries
// best-effort dispatch failures; they never fail the revoke itself.
type RevokeOrganizerResponse struct {
	OrganizerID           uint     `json:"organizer_id"`
	HackathonsUnpublished int64    `json:"hackathons_unpublished"`
	ParticipantsNotified  int      `json:"participants_notified"`
	OrganizerNotified     bool     `json:"organizer_notified"`
	NotifyErrors          []string `json:"notify_errors,omitempty"`
}

// ManualReviewResponse answers the flagged-organizer submission check.
type ManualReviewResponse struct {
	OrganizerID          uint   `json:"organizer_id"`
	RequiresManualReview bool   `json:"requires_manual_review"`
	FlagReason           string `json:"flag_reason,omitempty"`
}
