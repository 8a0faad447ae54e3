package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

// ActivityLogFilter narrows activity stream queries. Cursor encodes the
// (created_at, id) position of the last item of the previous page.
type ActivityLogFilter struct {
	Types      []models.ActivityType
	Severity   models.Severity
	ActorID    *uint
	TargetType models.TargetType
	TargetID   uint
	Since      time.Time
	Until      time.Time
	Cursor     string
	Limit      int
}

// ActivityLogRepository persists and reads the append-only event stream.
type ActivityLogRepository interface {
	Create(ctx context.Context, item *models.ActivityItem) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityItem, bool, string, error)
	CountBetween(ctx context.Context, since, until time.Time, actorID *uint) (int64, error)
	CountByTypesSince(ctx context.Context, actorID uint, types []models.ActivityType, since time.Time) (int64, error)
	CountTargeting(ctx context.Context, types []models.ActivityType, targetType models.TargetType, targetID uint) (int64, error)
	CountByActor(ctx context.Context, actorID uint, types []models.ActivityType) (int64, error)
	DistinctActorsSince(ctx context.Context, since time.Time) ([]uint, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, item *models.ActivityItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityItem, bool, string, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityItem{})

	if len(filter.Types) > 0 {
		query = query.Where("activity_type IN ?", filter.Types)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID > 0 {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at <= ?", filter.Until)
	}

	if filter.Cursor != "" {
		createdAt, id, err := DecodeActivityCursor(filter.Cursor)
		if err != nil {
			return nil, false, "", err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var items []models.ActivityItem
	if err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&items).Error; err != nil {
		return nil, false, "", err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	nextCursor := ""
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = EncodeActivityCursor(last.CreatedAt, last.ID)
	}

	return items, hasMore, nextCursor, nil
}

func (r *activityLogRepository) CountBetween(ctx context.Context, since, until time.Time, actorID *uint) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityItem{}).
		Where("created_at >= ? AND created_at < ?", since, until)
	if actorID != nil {
		query = query.Where("actor_id = ?", *actorID)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *activityLogRepository) CountByTypesSince(ctx context.Context, actorID uint, types []models.ActivityType, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ActivityItem{}).
		Where("actor_id = ? AND activity_type IN ? AND created_at >= ?", actorID, types, since).
		Count(&count).Error
	return count, err
}

func (r *activityLogRepository) CountTargeting(ctx context.Context, types []models.ActivityType, targetType models.TargetType, targetID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ActivityItem{}).
		Where("activity_type IN ? AND target_type = ? AND target_id = ?", types, targetType, targetID).
		Count(&count).Error
	return count, err
}

func (r *activityLogRepository) CountByActor(ctx context.Context, actorID uint, types []models.ActivityType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ActivityItem{}).
		Where("actor_id = ? AND activity_type IN ?", actorID, types).
		Count(&count).Error
	return count, err
}

func (r *activityLogRepository) DistinctActorsSince(ctx context.Context, since time.Time) ([]uint, error) {
	var actors []uint
	err := r.db.WithContext(ctx).Model(&models.ActivityItem{}).
		Where("actor_id IS NOT NULL AND created_at >= ?", since).
		Distinct().Pluck("actor_id", &actors).Error
	return actors, err
}

// EncodeActivityCursor packs a stream position into an opaque cursor token.
func EncodeActivityCursor(createdAt time.Time, id uint) string {
	raw := fmt.Sprintf("%d:%d", createdAt.UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeActivityCursor unpacks a cursor token produced by EncodeActivityCursor.
func DecodeActivityCursor(cursor string) (time.Time, uint, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed cursor: %w", err)
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("malformed cursor")
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed cursor timestamp: %w", err)
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed cursor id: %w", err)
	}

	return time.Unix(0, nanos).UTC(), uint(id), nil
}
