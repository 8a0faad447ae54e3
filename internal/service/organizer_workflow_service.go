package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/observability"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
)

// ErrOrganizerNotFound indicates the organizer does not exist.
var ErrOrganizerNotFound = errors.New("organizer not found")

// ErrNotAnOrganizer indicates the user does not hold the organizer role.
var ErrNotAnOrganizer = errors.New("user is not an organizer")

// OrganizerWorkflowService drives the flag/unflag/revoke lifecycle for
// organizers. Revoke is two-phase: one transactional mutation (unpublish
// everything, demote), then best-effort side effects whose failures are
// collected on the result, never thrown.
type OrganizerWorkflowService interface {
	Flag(ctx context.Context, organizerID uint, req dto.FlagOrganizerRequest, actorID uint) (dto.TrustScoreResponse, error)
	Unflag(ctx context.Context, organizerID uint, req dto.UnflagOrganizerRequest, actorID uint) (dto.TrustScoreResponse, error)
	Revoke(ctx context.Context, organizerID uint, req dto.RevokeOrganizerRequest, actorID uint) (dto.RevokeOrganizerResponse, error)
	RequiresManualReview(ctx context.Context, organizerID uint) (dto.ManualReviewResponse, error)
}

type organizerWorkflowService struct {
	scores     repository.TrustScoreRepository
	users      repository.UserRepository
	hackathons repository.HackathonRepository
	activity   ActivityRecorder
	notifier   Notifier
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewOrganizerWorkflowService constructs the organizer workflow service.
func NewOrganizerWorkflowService(
	scores repository.TrustScoreRepository,
	users repository.UserRepository,
	hackathons repository.HackathonRepository,
	activity ActivityRecorder,
	notifier Notifier,
	validate *validator.Validate,
	logger zerolog.Logger,
) OrganizerWorkflowService {
	return &organizerWorkflowService{
		scores:     scores,
		users:      users,
		hackathons: hackathons,
		activity:   activity,
		notifier:   notifier,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "organizer_workflow_service").Logger(),
		now:        time.Now,
	}
}

func (s *organizerWorkflowService) Flag(ctx context.Context, organizerID uint, req dto.FlagOrganizerRequest, actorID uint) (dto.TrustScoreResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TrustScoreResponse{}, err
	}

	reason := s.sanitizer.Sanitize(strings.TrimSpace(req.Reason))

	record, err := s.loadOrInitScore(ctx, organizerID)
	if err != nil {
		return dto.TrustScoreResponse{}, err
	}

	// Re-flagging with the identical reason is a no-op: no new timestamp,
	// no duplicate activity entry.
	if record.IsFlagged && record.FlagReason == reason {
		return dto.NewTrustScoreResponse(record), nil
	}

	flaggedAt := s.now()
	record.IsFlagged = true
	record.FlagReason = reason
	record.FlaggedAt = &flaggedAt

	if err := s.scores.Upsert(ctx, &record); err != nil {
		return dto.TrustScoreResponse{}, err
	}

	observability.OrganizerFlags().WithLabelValues("flagged").Inc()
	s.record(ctx, models.ActivityOrganizerFlagged, organizerID, actorID, "organizer flagged for manual review", map[string]interface{}{
		"reason": reason,
	})

	return dto.NewTrustScoreResponse(record), nil
}

func (s *organizerWorkflowService) Unflag(ctx context.Context, organizerID uint, req dto.UnflagOrganizerRequest, actorID uint) (dto.TrustScoreResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TrustScoreResponse{}, err
	}

	record, err := s.scores.Get(ctx, models.SubjectOrganizer, organizerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TrustScoreResponse{}, ErrOrganizerNotFound
		}
		return dto.TrustScoreResponse{}, err
	}

	if record.IsFlagged {
		record.IsFlagged = false
		record.FlagReason = ""
		record.FlaggedAt = nil
		if err := s.scores.Upsert(ctx, &record); err != nil {
			return dto.TrustScoreResponse{}, err
		}

		observability.OrganizerFlags().WithLabelValues("unflagged").Inc()
		// The unflag reason only lives in the activity log.
		s.record(ctx, models.ActivityOrganizerUnflagged, organizerID, actorID, "organizer flag cleared", map[string]interface{}{
			"reason": s.sanitizer.Sanitize(strings.TrimSpace(req.Reason)),
		})
	}

	return dto.NewTrustScoreResponse(record), nil
}

func (s *organizerWorkflowService) Revoke(ctx context.Context, organizerID uint, req dto.RevokeOrganizerRequest, actorID uint) (dto.RevokeOrganizerResponse, error) {
	tracer := otel.Tracer("github.com/hackverse/hackverse-admin-api/internal/service/organizer_workflow")
	ctx, span := tracer.Start(ctx, "organizer.revoke")
	span.SetAttributes(attribute.Int64("organizer.id", int64(organizerID)))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.RevokeOrganizerResponse{}, err
	}

	user, err := s.users.GetByID(ctx, organizerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "organizer_not_found")
			return dto.RevokeOrganizerResponse{}, ErrOrganizerNotFound
		}
		span.RecordError(err)
		return dto.RevokeOrganizerResponse{}, err
	}

	published, err := s.hackathons.ListPublishedByOrganizer(ctx, organizerID)
	if err != nil {
		span.RecordError(err)
		return dto.RevokeOrganizerResponse{}, err
	}

	if user.Role != models.RoleOrganizer && len(published) == 0 {
		// Retry of an already completed revoke; nothing left to mutate.
		return dto.RevokeOrganizerResponse{OrganizerID: organizerID}, nil
	}

	outcome, err := s.hackathons.RevokeOrganizer(ctx, organizerID, models.RoleParticipant, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "revoke_mutation_failed")
		return dto.RevokeOrganizerResponse{}, fmt.Errorf("revoke organizer %d: %w", organizerID, err)
	}

	result := dto.RevokeOrganizerResponse{
		OrganizerID:           organizerID,
		HackathonsUnpublished: outcome.HackathonsUnpublished,
	}

	// Side-effect phase. Every failure lands on the result, none aborts.
	reason := s.sanitizer.Sanitize(strings.TrimSpace(req.Reason))

	if req.NotifyOrganizer && s.notifier != nil {
		if err := s.notifier.NotifyOrganizer(ctx, organizerID, "Organizer privileges revoked", reason); err != nil {
			s.logger.Warn().Err(err).Uint("organizer_id", organizerID).Msg("organizer notification failed")
			result.NotifyErrors = append(result.NotifyErrors, fmt.Sprintf("organizer: %v", err))
		} else {
			result.OrganizerNotified = true
		}
	}

	if req.NotifyParticipants && s.notifier != nil {
		for _, hackathon := range published {
			notified, err := s.notifier.NotifyParticipants(ctx, hackathon.ID, hackathon.ParticipantCount,
				"Hackathon unpublished", fmt.Sprintf("%q has been unpublished by moderation", hackathon.Title))
			if err != nil {
				s.logger.Warn().Err(err).Uint("hackathon_id", hackathon.ID).Msg("participant notification failed")
				result.NotifyErrors = append(result.NotifyErrors, fmt.Sprintf("hackathon %d: %v", hackathon.ID, err))
				continue
			}
			result.ParticipantsNotified += notified
		}
	}

	observability.OrganizerFlags().WithLabelValues("revoked").Inc()
	s.record(ctx, models.ActivityOrganizerRevoked, organizerID, actorID, "organizer privileges revoked", map[string]interface{}{
		"reason":                 reason,
		"hackathons_unpublished": outcome.HackathonsUnpublished,
		"role_demoted":           outcome.RoleDemoted,
	})

	span.SetAttributes(
		attribute.Int64("organizer.hackathons_unpublished", outcome.HackathonsUnpublished),
		attribute.Int("organizer.participants_notified", result.ParticipantsNotified),
	)

	return result, nil
}

// RequiresManualReview is the read-only check the submission pipeline calls
// before auto-publishing a flagged organizer's hackathon.
func (s *organizerWorkflowService) RequiresManualReview(ctx context.Context, organizerID uint) (dto.ManualReviewResponse, error) {
	record, err := s.scores.Get(ctx, models.SubjectOrganizer, organizerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ManualReviewResponse{OrganizerID: organizerID}, nil
		}
		return dto.ManualReviewResponse{}, err
	}

	return dto.ManualReviewResponse{
		OrganizerID:          organizerID,
		RequiresManualReview: record.IsFlagged,
		FlagReason:           record.FlagReason,
	}, nil
}

func (s *organizerWorkflowService) loadOrInitScore(ctx context.Context, organizerID uint) (models.TrustScore, error) {
	record, err := s.scores.Get(ctx, models.SubjectOrganizer, organizerID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TrustScore{}, err
	}

	if _, err := s.users.GetByID(ctx, organizerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TrustScore{}, ErrOrganizerNotFound
		}
		return models.TrustScore{}, err
	}

	return models.TrustScore{
		SubjectKind:      models.SubjectOrganizer,
		SubjectID:        organizerID,
		LastCalculatedAt: s.now(),
	}, nil
}

// record appends a workflow event; failures are logged and swallowed, an
// audit miss must not fail the mutation it describes.
func (s *organizerWorkflowService) record(ctx context.Context, activityType models.ActivityType, organizerID, actorID uint, action string, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	actor := actorID
	_, err := s.activity.Record(ctx, ActivityEntry{
		Type:       activityType,
		ActorID:    &actor,
		TargetType: models.TargetOrganizer,
		TargetID:   organizerID,
		Action:     action,
		Severity:   models.SeverityWarning,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("activity_type", string(activityType)).Msg("failed to record organizer workflow event")
	}
}
