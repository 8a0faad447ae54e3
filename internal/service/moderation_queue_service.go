package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/observability"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
)

// ErrQueueItemNotFound indicates the queue item does not exist.
var ErrQueueItemNotFound = errors.New("queue item not found")

// ErrAlreadyClaimed indicates the item is no longer pending.
var ErrAlreadyClaimed = errors.New("queue item already claimed")

// ErrNotClaimed indicates the item is not in the claimed state.
var ErrNotClaimed = errors.New("queue item not claimed")

// ErrNotClaimedByYou indicates the item is claimed by a different moderator.
var ErrNotClaimedByYou = errors.New("queue item claimed by another moderator")

// ErrAlreadyResolved indicates the item already reached a terminal state.
var ErrAlreadyResolved = errors.New("queue item already resolved")

const queueCountsCacheKey = "moderation:queue:counts:v1"

// Priority derivation. When a caller supplies no explicit priority the queue
// derives one: start from a neutral base, add one point per extra report on
// the same target, and weigh the boost by the reporter's trust band so that
// low-trust reporters raise urgency more slowly. The derived value stays
// inside [PriorityMin, PriorityMax].
const (
	derivedPriorityBase = 3
	reportBoostCap      = 4

	trustBoostHigh = 2 // reporter trust >= 75
	trustBoostMid  = 1 // reporter trust >= 40
)

// ModerationQueueService owns the queue item state machine. Claim, release
// and resolve each ride on one conditional update in the repository, so two
// racing moderators can never both win the same transition.
type ModerationQueueService interface {
	Enqueue(ctx context.Context, req dto.EnqueueRequest) (dto.QueueItemResponse, error)
	Claim(ctx context.Context, itemID, claimant uint) (dto.QueueItemResponse, error)
	Release(ctx context.Context, itemID, claimant uint) (dto.QueueItemResponse, error)
	Resolve(ctx context.Context, itemID, claimant uint, req dto.ResolveRequest) (dto.QueueItemResponse, error)
	List(ctx context.Context, req dto.QueueListRequest) (dto.QueueListResponse, error)
}

type moderationQueueService struct {
	repo      repository.QueueRepository
	trust     TrustReader
	activity  ActivityRecorder
	validator *validator.Validate
	cache     *redis.Client
	countsTTL time.Duration
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewModerationQueueService constructs the moderation queue service.
func NewModerationQueueService(
	repo repository.QueueRepository,
	trust TrustReader,
	activity ActivityRecorder,
	validate *validator.Validate,
	cache *redis.Client,
	countsTTL time.Duration,
	logger zerolog.Logger,
) ModerationQueueService {
	if countsTTL <= 0 {
		countsTTL = 30 * time.Second
	}
	return &moderationQueueService{
		repo:      repo,
		trust:     trust,
		activity:  activity,
		validator: validate,
		cache:     cache,
		countsTTL: countsTTL,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "moderation_queue_service").Logger(),
		now:       time.Now,
	}
}

func (s *moderationQueueService) Enqueue(ctx context.Context, req dto.EnqueueRequest) (dto.QueueItemResponse, error) {
	tracer := otel.Tracer("github.com/hackverse/hackverse-admin-api/internal/service/moderation_queue")
	ctx, span := tracer.Start(ctx, "queue.enqueue")
	span.SetAttributes(
		attribute.String("queue.target_type", req.TargetType),
		attribute.Int64("queue.target_id", int64(req.TargetID)),
	)
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.QueueItemResponse{}, err
	}

	itemType := models.QueueItemType(req.ItemType)
	targetType := models.TargetType(strings.TrimSpace(req.TargetType))
	if !targetType.Valid() {
		return dto.QueueItemResponse{}, ErrInvalidTargetType
	}

	// Only system-raised items may point at the platform itself.
	if req.TargetID == 0 && !req.System {
		return dto.QueueItemResponse{}, ErrInvalidTargetType
	}

	now := s.now()
	priority := s.derivePriority(ctx, req, 1)

	existing, err := s.repo.FindActiveByTarget(ctx, targetType, req.TargetID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "target_lookup_failed")
		return dto.QueueItemResponse{}, err
	}

	if existing != nil {
		return s.mergeReport(ctx, span, existing.ID, req, priority, now)
	}

	reportCount := 1
	if req.System {
		reportCount = 0
	}

	item := models.QueueItem{
		ItemType:    itemType,
		Priority:    priority,
		Title:       s.sanitizer.Sanitize(strings.TrimSpace(req.Title)),
		Description: s.sanitizer.Sanitize(strings.TrimSpace(req.Description)),
		TargetType:  targetType,
		TargetID:    req.TargetID,
		TargetData:  datatypes.JSONMap(req.TargetData),
		ReportCount: reportCount,
		Status:      models.QueueStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	item.AddReporter(req.ReporterID)

	if err := s.repo.Create(ctx, &item); err != nil {
		// A concurrent first report for the same target beat this create to
		// the active_key unique index. Fold this report into the winning row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, ferr := s.repo.FindActiveByTarget(ctx, targetType, req.TargetID)
			if ferr == nil && winner != nil {
				return s.mergeReport(ctx, span, winner.ID, req, priority, now)
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.QueueItemResponse{}, err
	}

	span.SetAttributes(attribute.Int64("queue.item_id", int64(item.ID)), attribute.Int("queue.priority", item.Priority))
	observability.QueueEnqueues().WithLabelValues("created").Inc()
	s.invalidateCounts(ctx)

	return dto.NewQueueItemResponse(item), nil
}

func (s *moderationQueueService) mergeReport(ctx context.Context, span trace.Span, itemID uint, req dto.EnqueueRequest, priority int, now time.Time) (dto.QueueItemResponse, error) {
	mergePriority := priority
	if req.Priority != nil {
		mergePriority = clampPriority(*req.Priority)
	}
	merged, err := s.repo.MergeReport(ctx, itemID, req.ReporterID, mergePriority, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "merge_failed")
		return dto.QueueItemResponse{}, err
	}
	span.SetAttributes(attribute.Bool("queue.merged", true), attribute.Int("queue.report_count", merged.ReportCount))
	observability.QueueEnqueues().WithLabelValues("merged").Inc()
	s.invalidateCounts(ctx)
	return dto.NewQueueItemResponse(merged), nil
}

func (s *moderationQueueService) Claim(ctx context.Context, itemID, claimant uint) (dto.QueueItemResponse, error) {
	tracer := otel.Tracer("github.com/hackverse/hackverse-admin-api/internal/service/moderation_queue")
	ctx, span := tracer.Start(ctx, "queue.claim")
	span.SetAttributes(attribute.Int64("queue.item_id", int64(itemID)), attribute.Int64("queue.claimant", int64(claimant)))
	defer span.End()

	rows, err := s.repo.Claim(ctx, itemID, claimant, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "claim_failed")
		return dto.QueueItemResponse{}, err
	}

	if rows == 0 {
		observability.QueueClaims().WithLabelValues("lost").Inc()
		item, err := s.repo.GetByID(ctx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QueueItemResponse{}, ErrQueueItemNotFound
		}
		if err != nil {
			return dto.QueueItemResponse{}, err
		}
		// Any non-pending state loses the claim race.
		return dto.QueueItemResponse{}, claimRaceError(item)
	}

	observability.QueueClaims().WithLabelValues("won").Inc()
	s.invalidateCounts(ctx)

	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return dto.QueueItemResponse{}, err
	}
	return dto.NewQueueItemResponse(item), nil
}

func (s *moderationQueueService) Release(ctx context.Context, itemID, claimant uint) (dto.QueueItemResponse, error) {
	rows, err := s.repo.Release(ctx, itemID, claimant, s.now())
	if err != nil {
		return dto.QueueItemResponse{}, err
	}

	if rows == 0 {
		item, err := s.repo.GetByID(ctx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QueueItemResponse{}, ErrQueueItemNotFound
		}
		if err != nil {
			return dto.QueueItemResponse{}, err
		}
		return dto.QueueItemResponse{}, transitionError(item, claimant)
	}

	s.invalidateCounts(ctx)

	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return dto.QueueItemResponse{}, err
	}
	return dto.NewQueueItemResponse(item), nil
}

func (s *moderationQueueService) Resolve(ctx context.Context, itemID, claimant uint, req dto.ResolveRequest) (dto.QueueItemResponse, error) {
	tracer := otel.Tracer("github.com/hackverse/hackverse-admin-api/internal/service/moderation_queue")
	ctx, span := tracer.Start(ctx, "queue.resolve")
	span.SetAttributes(attribute.Int64("queue.item_id", int64(itemID)), attribute.String("queue.resolution", req.Resolution))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.QueueItemResponse{}, err
	}

	resolution := models.Resolution(req.Resolution)
	status := models.QueueStatusResolved
	if resolution == models.ResolutionDismissed {
		status = models.QueueStatusDismissed
	}

	note := s.sanitizer.Sanitize(strings.TrimSpace(req.Reason))

	rows, err := s.repo.Resolve(ctx, itemID, claimant, status, resolution, note, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve_failed")
		return dto.QueueItemResponse{}, err
	}

	if rows == 0 {
		item, err := s.repo.GetByID(ctx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QueueItemResponse{}, ErrQueueItemNotFound
		}
		if err != nil {
			return dto.QueueItemResponse{}, err
		}
		return dto.QueueItemResponse{}, transitionError(item, claimant)
	}

	observability.QueueResolutions().WithLabelValues(string(resolution)).Inc()
	s.invalidateCounts(ctx)

	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return dto.QueueItemResponse{}, err
	}

	if s.activity != nil {
		moderator := claimant
		_, err := s.activity.Record(ctx, ActivityEntry{
			Type:       models.ActivityModerationAction,
			ActorID:    &moderator,
			TargetType: item.TargetType,
			TargetID:   item.TargetID,
			TargetName: item.Title,
			Action:     fmt.Sprintf("queue item %s", resolution),
			Severity:   models.SeverityInfo,
			Metadata: map[string]interface{}{
				"queue_item_id": item.ID,
				"resolution":    string(resolution),
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Uint("item_id", item.ID).Msg("failed to record moderation action")
		}
	}

	return dto.NewQueueItemResponse(item), nil
}

func (s *moderationQueueService) List(ctx context.Context, req dto.QueueListRequest) (dto.QueueListResponse, error) {
	filter := repository.QueueFilter{
		ItemType:    models.QueueItemType(strings.TrimSpace(req.ItemType)),
		Status:      models.QueueStatus(strings.TrimSpace(req.Status)),
		ClaimedBy:   req.ClaimedBy,
		MinPriority: req.MinPriority,
		MaxPriority: req.MaxPriority,
		Page:        maxInt(req.Page, 1),
		PageSize:    req.PageSize,
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.QueueListResponse{}, err
	}

	counts, err := s.counts(ctx)
	if err != nil {
		return dto.QueueListResponse{}, err
	}

	responses := make([]dto.QueueItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewQueueItemResponse(item))
	}

	pagination := dto.PaginationMeta{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalItems: total,
	}
	if filter.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(filter.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.QueueListResponse{Items: responses, Counts: counts, Pagination: pagination}, nil
}

// derivePriority picks the explicit priority when the caller gave one, and
// otherwise applies the documented formula over the report count and the
// reporter's trust standing.
func (s *moderationQueueService) derivePriority(ctx context.Context, req dto.EnqueueRequest, reportCount int) int {
	if req.Priority != nil {
		return clampPriority(*req.Priority)
	}

	boost := reportCount - 1
	if boost > reportBoostCap {
		boost = reportBoostCap
	}

	if req.ReporterID != nil && s.trust != nil {
		if score, ok := s.trust.CurrentScore(ctx, models.SubjectUser, *req.ReporterID); ok {
			switch {
			case score >= 75:
				boost += trustBoostHigh
			case score >= 40:
				boost += trustBoostMid
			}
		}
	}

	return clampPriority(derivedPriorityBase + boost)
}

func (s *moderationQueueService) counts(ctx context.Context) (dto.QueueCounts, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, queueCountsCacheKey).Result(); err == nil && cached != "" {
			var counts dto.QueueCounts
			if err := json.Unmarshal([]byte(cached), &counts); err == nil {
				return counts, nil
			}
		}
	}

	raw, err := s.repo.Counts(ctx)
	if err != nil {
		return dto.QueueCounts{}, err
	}
	counts := dto.QueueCounts{ByStatus: raw.ByStatus, ByType: raw.ByType}

	if s.cache != nil {
		if payload, err := json.Marshal(counts); err == nil {
			if err := s.cache.Set(ctx, queueCountsCacheKey, payload, s.countsTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to write queue counts cache")
			}
		}
	}

	return counts, nil
}

func (s *moderationQueueService) invalidateCounts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, queueCountsCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate queue counts cache")
	}
}

// claimRaceError maps the observed state of an item that refused a claim.
func claimRaceError(item models.QueueItem) error {
	if item.IsTerminal() {
		return ErrAlreadyResolved
	}
	return ErrAlreadyClaimed
}

// transitionError maps the observed state of an item that refused a release
// or resolve.
func transitionError(item models.QueueItem, claimant uint) error {
	if item.IsTerminal() {
		return ErrAlreadyResolved
	}
	if item.Status == models.QueueStatusClaimed && item.ClaimedBy != nil && *item.ClaimedBy != claimant {
		return ErrNotClaimedByYou
	}
	return ErrNotClaimed
}

func clampPriority(priority int) int {
	if priority < models.PriorityMin {
		return models.PriorityMin
	}
	if priority > models.PriorityMax {
		return models.PriorityMax
	}
	return priority
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
