package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/observability"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
)

// ErrSubjectNotFound indicates the user or organizer does not exist.
var ErrSubjectNotFound = errors.New("trust subject not found")

// ErrTrustScoreNotFound indicates no score has been computed for the subject.
var ErrTrustScoreNotFound = errors.New("trust score not found")

// TrustReader is the narrow view the moderation queue uses to weigh a
// reporter's standing when deriving priorities.
type TrustReader interface {
	CurrentScore(ctx context.Context, kind models.SubjectKind, subjectID uint) (float64, bool)
}

// TrustService computes and persists trust scores. Computation itself is
// pure (ComputeTrustScore); this service assembles the factor snapshot from
// the entity stores and replaces the persisted record wholesale.
type TrustService interface {
	TrustReader
	Get(ctx context.Context, kind models.SubjectKind, subjectID uint) (dto.TrustScoreResponse, error)
	RecomputeUser(ctx context.Context, userID uint) (dto.TrustScoreResponse, error)
	RecomputeOrganizer(ctx context.Context, organizerID uint) (dto.TrustScoreResponse, error)
}

type trustService struct {
	scores     repository.TrustScoreRepository
	users      repository.UserRepository
	hackathons repository.HackathonRepository
	activity   repository.ActivityLogRepository
	queue      repository.QueueRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	rules      TrustRules
	logger     zerolog.Logger
	now        func() time.Time
}

// NewTrustService constructs the trust scoring service.
func NewTrustService(
	scores repository.TrustScoreRepository,
	users repository.UserRepository,
	hackathons repository.HackathonRepository,
	activity repository.ActivityLogRepository,
	queue repository.QueueRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	rules TrustRules,
	logger zerolog.Logger,
) TrustService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &trustService{
		scores:     scores,
		users:      users,
		hackathons: hackathons,
		activity:   activity,
		queue:      queue,
		cache:      cache,
		cacheTTL:   cacheTTL,
		rules:      rules,
		logger:     logger.With().Str("component", "trust_service").Logger(),
		now:        time.Now,
	}
}

func (s *trustService) Get(ctx context.Context, kind models.SubjectKind, subjectID uint) (dto.TrustScoreResponse, error) {
	score, err := s.scores.Get(ctx, kind, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TrustScoreResponse{}, ErrTrustScoreNotFound
		}
		return dto.TrustScoreResponse{}, err
	}
	return dto.NewTrustScoreResponse(score), nil
}

func (s *trustService) RecomputeUser(ctx context.Context, userID uint) (dto.TrustScoreResponse, error) {
	return s.recompute(ctx, models.SubjectUser, userID)
}

func (s *trustService) RecomputeOrganizer(ctx context.Context, organizerID uint) (dto.TrustScoreResponse, error) {
	return s.recompute(ctx, models.SubjectOrganizer, organizerID)
}

func (s *trustService) recompute(ctx context.Context, kind models.SubjectKind, subjectID uint) (dto.TrustScoreResponse, error) {
	factors, err := s.assembleFactors(ctx, kind, subjectID)
	if err != nil {
		return dto.TrustScoreResponse{}, err
	}

	breakdown := ComputeTrustScore(factors, kind)
	record := models.TrustScore{
		SubjectKind:      kind,
		SubjectID:        subjectID,
		Score:            breakdown.Final,
		Factors:          factors,
		Breakdown:        breakdown,
		LastCalculatedAt: s.now(),
	}

	if kind == models.SubjectOrganizer {
		// The hard rule can set the flag but never clears it; unflagging is
		// an explicit moderator decision handled by the organizer workflow.
		existing, err := s.scores.Get(ctx, kind, subjectID)
		if err == nil && existing.IsFlagged {
			record.IsFlagged = existing.IsFlagged
			record.FlagReason = existing.FlagReason
			record.FlaggedAt = existing.FlaggedAt
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TrustScoreResponse{}, err
		}

		if !record.IsFlagged {
			if flagged, reason := ShouldFlagOrganizer(factors, s.rules); flagged {
				flaggedAt := s.now()
				record.IsFlagged = true
				record.FlagReason = reason
				record.FlaggedAt = &flaggedAt
			}
		}
	}

	if err := s.scores.Upsert(ctx, &record); err != nil {
		s.logger.Error().Err(err).Uint("subject_id", subjectID).Str("kind", string(kind)).Msg("failed to persist trust score")
		return dto.TrustScoreResponse{}, err
	}

	observability.TrustRecomputes().WithLabelValues(string(kind)).Inc()
	s.cacheScore(ctx, kind, subjectID, record.Score)

	return dto.NewTrustScoreResponse(record), nil
}

// CurrentScore returns the freshest known score without recomputation. The
// redis cache fronts the persisted record; a miss on both reports false.
func (s *trustService) CurrentScore(ctx context.Context, kind models.SubjectKind, subjectID uint) (float64, bool) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.cacheKey(kind, subjectID)).Result(); err == nil {
			var score float64
			if err := json.Unmarshal([]byte(cached), &score); err == nil {
				return score, true
			}
		}
	}

	record, err := s.scores.Get(ctx, kind, subjectID)
	if err != nil {
		return 0, false
	}
	s.cacheScore(ctx, kind, subjectID, record.Score)
	return record.Score, true
}

func (s *trustService) assembleFactors(ctx context.Context, kind models.SubjectKind, subjectID uint) (models.TrustFactors, error) {
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TrustFactors{}, ErrSubjectNotFound
		}
		return models.TrustFactors{}, err
	}

	now := s.now()
	factors := models.TrustFactors{
		AccountAgeDays: int(now.Sub(user.CreatedAt).Hours() / 24),
		VerifiedEmail:  user.VerifiedEmail,
	}

	targetType := models.TargetUser
	if kind == models.SubjectOrganizer {
		targetType = models.TargetOrganizer

		approved, err := s.hackathons.CountByOrganizerAndStatus(ctx, subjectID, models.HackathonStatusApproved)
		if err != nil {
			return models.TrustFactors{}, err
		}
		rejected, err := s.hackathons.CountByOrganizerAndStatus(ctx, subjectID, models.HackathonStatusRejected)
		if err != nil {
			return models.TrustFactors{}, err
		}
		factors.ApprovedItems = int(approved)
		factors.RejectedItems = int(rejected)
	} else {
		approved, err := s.activity.CountByActor(ctx, subjectID, []models.ActivityType{models.ActivityProjectSubmitted})
		if err != nil {
			return models.TrustFactors{}, err
		}
		factors.ApprovedItems = int(approved)
	}

	received, err := s.activity.CountTargeting(ctx, []models.ActivityType{models.ActivityReportFiled}, targetType, subjectID)
	if err != nil {
		return models.TrustFactors{}, err
	}
	factors.ReportsReceived = int(received)

	// A report counts as valid once a moderator resolved the queue item
	// against the subject.
	upheld, err := s.queue.CountResolvedAgainst(ctx, targetType, subjectID, models.ResolutionRejected)
	if err != nil {
		return models.TrustFactors{}, err
	}
	factors.ValidReports = int(upheld)
	factors.Violations = int(upheld)

	filed, err := s.activity.CountByActor(ctx, subjectID, []models.ActivityType{models.ActivityReportFiled})
	if err != nil {
		return models.TrustFactors{}, err
	}
	factors.ReportsFiled = int(filed)

	actions, err := s.activity.CountTargeting(ctx, []models.ActivityType{models.ActivityModerationAction}, targetType, subjectID)
	if err != nil {
		return models.TrustFactors{}, err
	}
	factors.ModerationActions = int(actions)

	return factors, nil
}

func (s *trustService) cacheScore(ctx context.Context, kind models.SubjectKind, subjectID uint, score float64) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(score)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(kind, subjectID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write trust score cache")
	}
}

func (s *trustService) cacheKey(kind models.SubjectKind, subjectID uint) string {
	return fmt.Sprintf("trust:score:v1:%s:%d", kind, subjectID)
}
