package dto

import (
	"time"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

// EnqueueRequest flags an entity into the moderation queue. Priority, when
// supplied, wins over the derived value; otherwise the service derives one
// from the report count and the reporter's trust standing.
type EnqueueRequest struct {
	ItemType    string                 `json:"item_type" validate:"required,oneof=hackathon user project report"`
	Title       string                 `json:"title" validate:"required,min=3,max=255"`
	Description string                 `json:"description" validate:"omitempty,max=4000"`
	TargetType  string                 `json:"target_type" validate:"required"`
	TargetID    uint                   `json:"target_id"`
	TargetData  map[string]interface{} `json:"target_data"`
	ReporterID  *uint                  `json:"reporter_id"`
	Priority    *int                   `json:"priority" validate:"omitempty,min=1,max=10"`
	System      bool                   `json:"system"`
}

// ResolveRequest closes out a claimed queue item.
type ResolveRequest struct {
	Resolution string `json:"resolution" validate:"required,oneof=approved rejected dismissed escalated"`
	Reason     string `json:"reason" validate:"omitempty,max=2000"`
}

// QueueListRequest filters the moderation queue listing.
type QueueListRequest struct {
	ItemType    string
	Status      string
	ClaimedBy   *uint
	MinPriority int
	MaxPriority int
	Page        int
	PageSize    int
}

// QueueItemResponse serialises a moderation queue item.
type QueueItemResponse struct {
	ID             uint                   `json:"id"`
	ItemType       string                 `json:"item_type"`
	Priority       int                    `json:"priority"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description,omitempty"`
	TargetType     string                 `json:"target_type"`
	TargetID       uint                   `json:"target_id"`
	TargetData     map[string]interface{} `json:"target_data"`
	ReportCount    int                    `json:"report_count"`
	ReporterIDs    []uint                 `json:"reporter_ids"`
	ClaimedBy      *uint                  `json:"claimed_by"`
	ClaimedAt      *time.Time             `json:"claimed_at"`
	Status         string                 `json:"status"`
	Resolution     *string                `json:"resolution"`
	ResolutionNote string                 `json:"resolution_note,omitempty"`
	ResolvedBy     *uint                  `json:"resolved_by"`
	ResolvedAt     *time.Time             `json:"resolved_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// QueueCounts partitions the queue by status and item type.
type QueueCounts struct {
	ByStatus map[string]int64 `json:"by_status"`
	ByType   map[string]int64 `json:"by_type"`
}

// QueueListResponse wraps a queue page with its counts.
type QueueListResponse struct {
	Items      []QueueItemResponse `json:"items"`
	Counts     QueueCounts         `json:"counts"`
	Pagination PaginationMeta      `json:"pagination"`
}

// NewQueueItemResponse converts a queue item into its API shape.
func NewQueueItemResponse(item models.QueueItem) QueueItemResponse {
	var resolution *string
	if item.Resolution != nil {
		value := string(*item.Resolution)
		resolution = &value
	}

	reporters := item.ReporterIDs
	if reporters == nil {
		reporters = []uint{}
	}

	return QueueItemResponse{
		ID:             item.ID,
		ItemType:       string(item.ItemType),
		Priority:       item.Priority,
		Title:          item.Title,
		Description:    item.Description,
		TargetType:     string(item.TargetType),
		TargetID:       item.TargetID,
		TargetData:     map[string]interface{}(item.TargetData),
		ReportCount:    item.ReportCount,
		ReporterIDs:    reporters,
		ClaimedBy:      item.ClaimedBy,
		ClaimedAt:      item.ClaimedAt,
		Status:         string(item.Status),
		Resolution:     resolution,
		ResolutionNote: item.ResolutionNote,
		ResolvedBy:     item.ResolvedBy,
		ResolvedAt:     item.ResolvedAt,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}
