package models

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QueueItemType classifies the entity a moderation queue item concerns.
type QueueItemType string

const (
	QueueItemHackathon QueueItemType = "hackathon"
	QueueItemUser      QueueItemType = "user"
	QueueItemProject   QueueItemType = "project"
	QueueItemReport    QueueItemType = "report"
)

// Valid reports whether the item type is part of the closed set.
func (t QueueItemType) Valid() bool {
	switch t {
	case QueueItemHackathon, QueueItemUser, QueueItemProject, QueueItemReport:
		return true
	}
	return false
}

// QueueStatus tracks the claim/resolve state machine of a queue item.
type QueueStatus string

const (
	QueueStatusPending   QueueStatus = "pending"
	QueueStatusClaimed   QueueStatus = "claimed"
	QueueStatusResolved  QueueStatus = "resolved"
	QueueStatusDismissed QueueStatus = "dismissed"
)

// Resolution records the outcome chosen by the moderator who resolved an item.
type Resolution string

const (
	ResolutionApproved  Resolution = "approved"
	ResolutionRejected  Resolution = "rejected"
	ResolutionDismissed Resolution = "dismissed"
	ResolutionEscalated Resolution = "escalated"
)

// Valid reports whether the resolution is one of the known outcomes.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionApproved, ResolutionRejected, ResolutionDismissed, ResolutionEscalated:
		return true
	}
	return false
}

// Priority bounds for queue items; higher means more urgent.
const (
	PriorityMin = 1
	PriorityMax = 10
)

// QueueItem is one unit of moderation work. Items are never physically
// deleted; resolved and dismissed rows retain the moderation history.
type QueueItem struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	ItemType       QueueItemType     `gorm:"size:32;not null;index" json:"item_type"`
	Priority       int               `gorm:"not null;index" json:"priority"`
	Title          string            `gorm:"size:255;not null" json:"title"`
	Description    string            `gorm:"type:text" json:"description"`
	TargetType     TargetType        `gorm:"size:32;not null;index:idx_queue_target" json:"target_type"`
	TargetID       uint              `gorm:"not null;index:idx_queue_target" json:"target_id"`
	ActiveKey      *string           `gorm:"size:64;uniqueIndex" json:"-"`
	TargetData     datatypes.JSONMap `gorm:"type:json" json:"target_data"`
	ReportCount    int               `gorm:"not null;default:0" json:"report_count"`
	ReporterIDsRaw string            `gorm:"column:reporter_ids;type:text" json:"-"`
	ClaimedBy      *uint             `gorm:"index" json:"claimed_by"`
	ClaimedAt      *time.Time        `json:"claimed_at"`
	Status         QueueStatus       `gorm:"size:16;not null;default:pending;index" json:"status"`
	Resolution     *Resolution       `gorm:"size:16" json:"resolution"`
	ResolutionNote string            `gorm:"type:text" json:"resolution_note"`
	ResolvedBy     *uint             `json:"resolved_by"`
	ResolvedAt     *time.Time        `json:"resolved_at"`
	CreatedAt      time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	ReporterIDs    []uint            `gorm:"-" json:"reporter_ids"`
}

// ActiveTargetKey is the uniqueness key shared by all non-terminal queue
// items pointing at the same target. The unique index on active_key is what
// makes enqueue-merge safe against concurrent first reports: only one active
// row per target can exist, duplicates surface as a key conflict.
func ActiveTargetKey(targetType TargetType, targetID uint) string {
	return string(targetType) + ":" + strconv.FormatUint(uint64(targetID), 10)
}

// BeforeSave normalises the reporter set and keeps the active-target key in
// step with the lifecycle: set while the item is open, cleared once terminal
// so a fresh report can open a new item for the same target.
func (q *QueueItem) BeforeSave(tx *gorm.DB) error {
	q.ReporterIDsRaw = encodeReporterIDs(q.ReporterIDs)
	if q.IsTerminal() {
		q.ActiveKey = nil
	} else {
		key := ActiveTargetKey(q.TargetType, q.TargetID)
		q.ActiveKey = &key
	}
	return nil
}

// AfterFind hydrates the reporter set after retrieval.
func (q *QueueItem) AfterFind(tx *gorm.DB) error {
	q.ReporterIDs = decodeReporterIDs(q.ReporterIDsRaw)
	return nil
}

// IsTerminal reports whether the item reached a final state.
func (q QueueItem) IsTerminal() bool {
	return q.Status == QueueStatusResolved || q.Status == QueueStatusDismissed
}

// AddReporter unions a reporter into the set, ignoring duplicates and nil.
func (q *QueueItem) AddReporter(reporterID *uint) bool {
	if reporterID == nil {
		return false
	}
	for _, id := range q.ReporterIDs {
		if id == *reporterID {
			return false
		}
	}
	q.ReporterIDs = append(q.ReporterIDs, *reporterID)
	return true
}

func encodeReporterIDs(ids []uint) string {
	if len(ids) == 0 {
		return ""
	}
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, 0, len(sorted))
	var last uint
	for i, id := range sorted {
		if i > 0 && id == last {
			continue
		}
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
		last = id
	}
	return "|" + strings.Join(parts, "|") + "|"
}

func decodeReporterIDs(raw string) []uint {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []uint{}
	}
	parts := strings.Split(raw, "|")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		parsed, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(parsed))
	}
	return ids
}
