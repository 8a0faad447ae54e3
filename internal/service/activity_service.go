package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
)

// ErrInvalidActivityType indicates an activity type outside the closed set.
var ErrInvalidActivityType = errors.New("unknown activity type")

// ErrInvalidTargetType indicates a target type outside the closed set.
var ErrInvalidTargetType = errors.New("unknown target type")

// ActivityEntry captures the details required to append one event.
type ActivityEntry struct {
	Type          models.ActivityType
	ActorID       *uint
	ActorUsername string
	ActorEmail    string
	TargetType    models.TargetType
	TargetID      uint
	TargetName    string
	Action        string
	Metadata      map[string]interface{}
	Severity      models.Severity
}

// ActivityRecorder defines behaviour for appending to the event stream.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService exposes the append and cursor-paginated read surface of
// the platform event stream.
type ActivityService interface {
	ActivityRecorder
	Create(ctx context.Context, payload dto.CreateActivityRequest) (dto.ActivityResponse, error)
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Create(ctx context.Context, payload dto.CreateActivityRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	severity := models.Severity(strings.TrimSpace(payload.Severity))
	if severity == "" {
		severity = models.SeverityInfo
	}

	entry := ActivityEntry{
		Type:       models.ActivityType(strings.TrimSpace(payload.ActivityType)),
		ActorID:    payload.ActorID,
		TargetType: models.TargetType(strings.TrimSpace(payload.TargetType)),
		TargetID:   payload.TargetID,
		TargetName: payload.TargetName,
		Action:     payload.Action,
		Metadata:   payload.Metadata,
		Severity:   severity,
	}

	return s.Record(ctx, entry)
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if !entry.Type.Valid() {
		return dto.ActivityResponse{}, ErrInvalidActivityType
	}
	if !entry.TargetType.Valid() {
		return dto.ActivityResponse{}, ErrInvalidTargetType
	}

	severity := entry.Severity
	if severity == "" {
		severity = models.SeverityInfo
	}
	if !severity.Valid() {
		return dto.ActivityResponse{}, errors.New("unknown severity")
	}

	item := models.ActivityItem{
		Type:          entry.Type,
		ActorID:       entry.ActorID,
		ActorUsername: entry.ActorUsername,
		ActorEmail:    entry.ActorEmail,
		TargetType:    entry.TargetType,
		TargetID:      entry.TargetID,
		TargetName:    strings.TrimSpace(entry.TargetName),
		Action:        strings.TrimSpace(entry.Action),
		Metadata:      sanitizeMetadata(entry.Metadata),
		Severity:      severity,
	}

	if err := s.repo.Create(ctx, &item); err != nil {
		s.logger.Error().Err(err).Str("activity_type", string(entry.Type)).Msg("failed to append activity item")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(item), nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	filter := repository.ActivityLogFilter{
		Severity:   models.Severity(strings.TrimSpace(req.Severity)),
		ActorID:    req.ActorID,
		TargetType: models.TargetType(strings.TrimSpace(req.TargetType)),
		TargetID:   req.TargetID,
		Since:      req.Since,
		Until:      req.Until,
		Cursor:     strings.TrimSpace(req.Cursor),
		Limit:      req.Limit,
	}
	for _, raw := range req.Types {
		activityType := models.ActivityType(strings.TrimSpace(raw))
		if !activityType.Valid() {
			return dto.ActivityListResponse{}, ErrInvalidActivityType
		}
		filter.Types = append(filter.Types, activityType)
	}

	items, hasMore, nextCursor, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	activities := make([]dto.ActivityResponse, 0, len(items))
	for _, item := range items {
		activities = append(activities, dto.NewActivityResponse(item))
	}

	return dto.ActivityListResponse{
		Activities: activities,
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}, nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "password") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
