package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

// RevokeOutcome reports what the transactional revoke mutation changed.
// Conditional updates keep retries idempotent: a second revoke finds no
// published hackathons and no organizer role left to touch.
type RevokeOutcome struct {
	HackathonsUnpublished int64
	Participants          int64
	RoleDemoted           bool
}

// HackathonRepository reads organizer hackathon state and performs the
// all-or-nothing revoke mutation (unpublish everything, then demote).
type HackathonRepository interface {
	CountByOrganizerAndStatus(ctx context.Context, organizerID uint, status string) (int64, error)
	ListPublishedByOrganizer(ctx context.Context, organizerID uint) ([]models.Hackathon, error)
	RevokeOrganizer(ctx context.Context, organizerID uint, demoteTo string, now time.Time) (RevokeOutcome, error)
}

type hackathonRepository struct {
	db *gorm.DB
}

// NewHackathonRepository constructs the hackathon repository.
func NewHackathonRepository(db *gorm.DB) HackathonRepository {
	return &hackathonRepository{db: db}
}

func (r *hackathonRepository) CountByOrganizerAndStatus(ctx context.Context, organizerID uint, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Hackathon{}).
		Where("organizer_id = ? AND status = ?", organizerID, status).
		Count(&count).Error
	return count, err
}

func (r *hackathonRepository) ListPublishedByOrganizer(ctx context.Context, organizerID uint) ([]models.Hackathon, error) {
	var hackathons []models.Hackathon
	err := r.db.WithContext(ctx).
		Where("organizer_id = ? AND is_published = ?", organizerID, true).
		Find(&hackathons).Error
	return hackathons, err
}

// RevokeOrganizer runs inside a single transaction. Unpublish happens before
// the role change: an organizer with unpublished hackathons is a safe state,
// a demoted user with live hackathons is not.
func (r *hackathonRepository) RevokeOrganizer(ctx context.Context, organizerID uint, demoteTo string, now time.Time) (RevokeOutcome, error) {
	var outcome RevokeOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var participants int64
		if err := tx.Model(&models.Hackathon{}).
			Where("organizer_id = ? AND is_published = ?", organizerID, true).
			Select("COALESCE(SUM(participant_count), 0)").
			Scan(&participants).Error; err != nil {
			return err
		}

		unpublish := tx.Model(&models.Hackathon{}).
			Where("organizer_id = ? AND is_published = ?", organizerID, true).
			Updates(map[string]interface{}{
				"is_published": false,
				"published_at": nil,
				"updated_at":   now,
			})
		if unpublish.Error != nil {
			return unpublish.Error
		}

		demote := tx.Model(&models.User{}).
			Where("id = ? AND role = ?", organizerID, models.RoleOrganizer).
			Updates(map[string]interface{}{
				"role":       demoteTo,
				"updated_at": now,
			})
		if demote.Error != nil {
			return demote.Error
		}

		outcome = RevokeOutcome{
			HackathonsUnpublished: unpublish.RowsAffected,
			Participants:          participants,
			RoleDemoted:           demote.RowsAffected > 0,
		}
		return nil
	})
	if err != nil {
		return RevokeOutcome{}, err
	}
	return outcome, nil
}
