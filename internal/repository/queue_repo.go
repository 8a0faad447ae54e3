package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

// QueueFilter narrows moderation queue listings.
type QueueFilter struct {
	ItemType    models.QueueItemType
	Status      models.QueueStatus
	ClaimedBy   *uint
	MinPriority int
	MaxPriority int
	Page        int
	PageSize    int
}

// QueueCounts partitions active queue rows by status and by item type.
type QueueCounts struct {
	ByStatus map[string]int64
	ByType   map[string]int64
}

// QueueRepository persists moderation queue items. The claim, release and
// resolve mutations are conditional updates: the WHERE clause carries the
// expected current state and the returned row count tells the caller whether
// this request won the transition.
type QueueRepository interface {
	Create(ctx context.Context, item *models.QueueItem) error
	GetByID(ctx context.Context, id uint) (models.QueueItem, error)
	FindActiveByTarget(ctx context.Context, targetType models.TargetType, targetID uint) (*models.QueueItem, error)
	MergeReport(ctx context.Context, id uint, reporterID *uint, priority int, now time.Time) (models.QueueItem, error)
	Claim(ctx context.Context, id uint, claimant uint, now time.Time) (int64, error)
	Release(ctx context.Context, id uint, claimant uint, now time.Time) (int64, error)
	Resolve(ctx context.Context, id uint, claimant uint, status models.QueueStatus, resolution models.Resolution, note string, now time.Time) (int64, error)
	List(ctx context.Context, filter QueueFilter) ([]models.QueueItem, int64, error)
	Counts(ctx context.Context) (QueueCounts, error)
	CountResolvedAgainst(ctx context.Context, targetType models.TargetType, targetID uint, resolution models.Resolution) (int64, error)
}

type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository constructs the moderation queue repository.
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) Create(ctx context.Context, item *models.QueueItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *queueRepository) GetByID(ctx context.Context, id uint) (models.QueueItem, error) {
	var item models.QueueItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return models.QueueItem{}, err
	}
	return item, nil
}

func (r *queueRepository) FindActiveByTarget(ctx context.Context, targetType models.TargetType, targetID uint) (*models.QueueItem, error) {
	var item models.QueueItem
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND status IN ?", targetType, targetID,
			[]models.QueueStatus{models.QueueStatusPending, models.QueueStatusClaimed}).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MergeReport folds a duplicate report into the existing active item under a
// row lock: report_count increments, the reporter set unions, and the higher
// of the stored and offered priority wins.
func (r *queueRepository) MergeReport(ctx context.Context, id uint, reporterID *uint, priority int, now time.Time) (models.QueueItem, error) {
	var merged models.QueueItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.QueueItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error; err != nil {
			return err
		}
		if item.IsTerminal() {
			return gorm.ErrRecordNotFound
		}

		item.ReportCount++
		item.AddReporter(reporterID)
		if priority > item.Priority {
			item.Priority = priority
		}
		item.UpdatedAt = now

		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		merged = item
		return nil
	})
	if err != nil {
		return models.QueueItem{}, err
	}
	return merged, nil
}

func (r *queueRepository) Claim(ctx context.Context, id uint, claimant uint, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.QueueItem{}).
		Where("id = ? AND status = ? AND claimed_by IS NULL", id, models.QueueStatusPending).
		Updates(map[string]interface{}{
			"status":     models.QueueStatusClaimed,
			"claimed_by": claimant,
			"claimed_at": now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *queueRepository) Release(ctx context.Context, id uint, claimant uint, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.QueueItem{}).
		Where("id = ? AND status = ? AND claimed_by = ?", id, models.QueueStatusClaimed, claimant).
		Updates(map[string]interface{}{
			"status":     models.QueueStatusPending,
			"claimed_by": nil,
			"claimed_at": nil,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *queueRepository) Resolve(ctx context.Context, id uint, claimant uint, status models.QueueStatus, resolution models.Resolution, note string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.QueueItem{}).
		Where("id = ? AND status = ? AND claimed_by = ?", id, models.QueueStatusClaimed, claimant).
		Updates(map[string]interface{}{
			"status":          status,
			"resolution":      resolution,
			"resolution_note": note,
			"resolved_by":     claimant,
			"resolved_at":     now,
			"updated_at":      now,
			"active_key":      nil,
		})
	return result.RowsAffected, result.Error
}

func (r *queueRepository) List(ctx context.Context, filter QueueFilter) ([]models.QueueItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.QueueItem{})

	if filter.ItemType != "" {
		query = query.Where("item_type = ?", filter.ItemType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClaimedBy != nil {
		query = query.Where("claimed_by = ?", *filter.ClaimedBy)
	}
	if filter.MinPriority > 0 {
		query = query.Where("priority >= ?", filter.MinPriority)
	}
	if filter.MaxPriority > 0 {
		query = query.Where("priority <= ?", filter.MaxPriority)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var items []models.QueueItem
	if err := query.Order("priority DESC, created_at ASC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *queueRepository) Counts(ctx context.Context) (QueueCounts, error) {
	counts := QueueCounts{
		ByStatus: map[string]int64{},
		ByType:   map[string]int64{},
	}

	type bucket struct {
		Key   string
		Total int64
	}

	var byStatus []bucket
	if err := r.db.WithContext(ctx).Model(&models.QueueItem{}).
		Select("status AS key, COUNT(*) AS total").
		Group("status").Scan(&byStatus).Error; err != nil {
		return QueueCounts{}, err
	}
	for _, b := range byStatus {
		counts.ByStatus[b.Key] = b.Total
	}

	var byType []bucket
	if err := r.db.WithContext(ctx).Model(&models.QueueItem{}).
		Select("item_type AS key, COUNT(*) AS total").
		Group("item_type").Scan(&byType).Error; err != nil {
		return QueueCounts{}, err
	}
	for _, b := range byType {
		counts.ByType[b.Key] = b.Total
	}

	return counts, nil
}

func (r *queueRepository) CountResolvedAgainst(ctx context.Context, targetType models.TargetType, targetID uint, resolution models.Resolution) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QueueItem{}).
		Where("target_type = ? AND target_id = ? AND status = ? AND resolution = ?",
			targetType, targetID, models.QueueStatusResolved, resolution).
		Count(&count).Error
	return count, err
}
