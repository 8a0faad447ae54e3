package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hackverse/hackverse-admin-api/internal/models"
)

// TrustScoreRepository persists trust score records. Scores are replaced
// wholesale on every recomputation; last writer wins on last_calculated_at.
type TrustScoreRepository interface {
	Get(ctx context.Context, kind models.SubjectKind, subjectID uint) (models.TrustScore, error)
	Upsert(ctx context.Context, score *models.TrustScore) error
}

type trustScoreRepository struct {
	db *gorm.DB
}

// NewTrustScoreRepository constructs the trust score repository.
func NewTrustScoreRepository(db *gorm.DB) TrustScoreRepository {
	return &trustScoreRepository{db: db}
}

func (r *trustScoreRepository) Get(ctx context.Context, kind models.SubjectKind, subjectID uint) (models.TrustScore, error) {
	var score models.TrustScore
	err := r.db.WithContext(ctx).
		Where("subject_kind = ? AND subject_id = ?", kind, subjectID).
		First(&score).Error
	if err != nil {
		return models.TrustScore{}, err
	}
	return score, nil
}

func (r *trustScoreRepository) Upsert(ctx context.Context, score *models.TrustScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_kind"}, {Name: "subject_id"}},
		UpdateAll: true,
	}).Create(score).Error
}
