package dto

import (
	"time"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

// CreateActivityRequest captures an event append submitted by a collaborator.
type CreateActivityRequest struct {
	ActivityType string                 `json:"activity_type" validate:"required"`
	ActorID      *uint                  `json:"actor_id"`
	TargetType   string                 `json:"target_type" validate:"required"`
	TargetID     uint                   `json:"target_id" validate:"required"`
	TargetName   string                 `json:"target_name" validate:"omitempty,max=255"`
	Action       string                 `json:"action" validate:"omitempty,max=255"`
	Metadata     map[string]interface{} `json:"metadata"`
	Severity     string                 `json:"severity" validate:"omitempty,oneof=info warning critical"`
}

// ActivityListRequest narrows the activity stream query. The cursor encodes
// the (created_at, id) position of the last item seen.
type ActivityListRequest struct {
	Types      []string
	Severity   string
	ActorID    *uint
	TargetType string
	TargetID   uint
	Since      time.Time
	Until      time.Time
	Cursor     string
	Limit      int
}

// ActivityResponse serialises one activity stream item.
type ActivityResponse struct {
	ID            uint                   `json:"id"`
	ActivityType  string                 `json:"activity_type"`
	ActorID       *uint                  `json:"actor_id"`
	ActorUsername string                 `json:"actor_username,omitempty"`
	TargetType    string                 `json:"target_type"`
	TargetID      uint                   `json:"target_id"`
	TargetName    string                 `json:"target_name,omitempty"`
	Action        string                 `json:"action,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	Severity      string                 `json:"severity"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ActivityListResponse is the cursor-paginated activity stream page.
type ActivityListResponse struct {
	Activities []ActivityResponse `json:"activities"`
	HasMore    bool               `json:"has_more"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// NewActivityResponse converts an activity item into its API shape.
func NewActivityResponse(item models.ActivityItem) ActivityResponse {
	return ActivityResponse{
		ID:            item.ID,
		ActivityType:  string(item.Type),
		ActorID:       item.ActorID,
		ActorUsername: item.ActorUsername,
		TargetType:    string(item.TargetType),
		TargetID:      item.TargetID,
		TargetName:    item.TargetName,
		Action:        item.Action,
		Metadata:      map[string]interface{}(item.Metadata),
		Severity:      string(item.Severity),
		CreatedAt:     item.CreatedAt,
	}
}
