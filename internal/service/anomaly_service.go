package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/observability"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
)

// PatternType names a per-actor suspicious pattern.
type PatternType string

const (
	PatternRapidRegistrations  PatternType = "rapid_registrations"
	PatternBulkAccountCreation PatternType = "bulk_account_creation"
	PatternMassTeamJoins       PatternType = "mass_team_joins"
	PatternRepeatedReports     PatternType = "repeated_reports"
	PatternSpamSubmissions     PatternType = "spam_submissions"
	PatternUnusualLogins       PatternType = "unusual_login_pattern"
)

// PatternRule binds a pattern to the event types it counts and the
// (threshold, window) pair that makes it fire.
type PatternRule struct {
	Pattern   PatternType
	Types     []models.ActivityType
	Threshold int
	Window    time.Duration
}

// AnomalyConfig carries every externally tunable detection threshold.
// Callers pass it in explicitly; nothing is read from ambient state.
type AnomalyConfig struct {
	SpikeThreshold    float64
	AverageWindow     time.Duration
	CurrentWindow     time.Duration
	MinimumActivities int
	Patterns          []PatternRule
}

// DefaultAnomalyConfig returns the stock thresholds.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		SpikeThreshold:    2.0,
		AverageWindow:     60 * time.Minute,
		CurrentWindow:     5 * time.Minute,
		MinimumActivities: 10,
		Patterns: []PatternRule{
			{Pattern: PatternRapidRegistrations, Types: []models.ActivityType{models.ActivityHackathonCreated}, Threshold: 5, Window: 10 * time.Minute},
			{Pattern: PatternBulkAccountCreation, Types: []models.ActivityType{models.ActivityUserRegistered}, Threshold: 10, Window: 30 * time.Minute},
			{Pattern: PatternMassTeamJoins, Types: []models.ActivityType{models.ActivityTeamJoined}, Threshold: 15, Window: 15 * time.Minute},
			{Pattern: PatternRepeatedReports, Types: []models.ActivityType{models.ActivityReportFiled}, Threshold: 8, Window: 60 * time.Minute},
			{Pattern: PatternSpamSubmissions, Types: []models.ActivityType{models.ActivityProjectSubmitted}, Threshold: 12, Window: 30 * time.Minute},
			{Pattern: PatternUnusualLogins, Types: []models.ActivityType{models.ActivityUserLogin}, Threshold: 20, Window: 10 * time.Minute},
		},
	}
}

// AnomalyService reads the activity stream and reports rate spikes and
// per-actor suspicious patterns. Detection is read-only; Sweep is the one
// entry point that turns positive results into queue items and events.
type AnomalyService interface {
	DetectSpike(ctx context.Context, actorID *uint) (dto.AnomalyResponse, error)
	DetectPatterns(ctx context.Context, actorID uint) ([]dto.AnomalyResponse, error)
	Sweep(ctx context.Context) (dto.AnomalySweepResponse, error)
}

// AnomalyEnqueuer is the slice of the moderation queue the sweep needs.
type AnomalyEnqueuer interface {
	Enqueue(ctx context.Context, req dto.EnqueueRequest) (dto.QueueItemResponse, error)
}

type anomalyService struct {
	activity repository.ActivityLogRepository
	queue    AnomalyEnqueuer
	recorder ActivityRecorder
	cfg      AnomalyConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAnomalyService constructs the anomaly detector.
func NewAnomalyService(activity repository.ActivityLogRepository, queue AnomalyEnqueuer, recorder ActivityRecorder, cfg AnomalyConfig, logger zerolog.Logger) AnomalyService {
	if cfg.SpikeThreshold <= 0 {
		cfg.SpikeThreshold = 2.0
	}
	if cfg.AverageWindow <= 0 {
		cfg.AverageWindow = 60 * time.Minute
	}
	if cfg.CurrentWindow <= 0 {
		cfg.CurrentWindow = 5 * time.Minute
	}
	if cfg.MinimumActivities <= 0 {
		cfg.MinimumActivities = 10
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = DefaultAnomalyConfig().Patterns
	}

	return &anomalyService{
		activity: activity,
		queue:    queue,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger.With().Str("component", "anomaly_service").Logger(),
		now:      time.Now,
	}
}

// DetectSpike compares the event rate inside the current window against the
// historical average. ActorID narrows the check to a single actor; nil means
// platform-wide.
func (s *anomalyService) DetectSpike(ctx context.Context, actorID *uint) (dto.AnomalyResponse, error) {
	now := s.now()
	currentStart := now.Add(-s.cfg.CurrentWindow)
	averageStart := now.Add(-s.cfg.AverageWindow)

	currentCount, err := s.activity.CountBetween(ctx, currentStart, now, actorID)
	if err != nil {
		return dto.AnomalyResponse{}, err
	}
	averageCount, err := s.activity.CountBetween(ctx, averageStart, now, actorID)
	if err != nil {
		return dto.AnomalyResponse{}, err
	}

	currentRate := float64(currentCount) / s.cfg.CurrentWindow.Minutes()
	averageRate := float64(averageCount) / s.cfg.AverageWindow.Minutes()

	result := dto.AnomalyResponse{
		ActorID:       actorID,
		ObservedCount: currentCount,
		Threshold:     s.cfg.SpikeThreshold,
		WindowStart:   currentStart,
		WindowEnd:     now,
	}

	if currentCount >= int64(s.cfg.MinimumActivities) && averageRate > 0 && currentRate >= averageRate*s.cfg.SpikeThreshold {
		result.Detected = true
		result.Detail = fmt.Sprintf("activity rate %.1f/min exceeds %.1fx the %.0f-minute average of %.1f/min",
			currentRate, s.cfg.SpikeThreshold, s.cfg.AverageWindow.Minutes(), averageRate)
		observability.AnomalyDetections().WithLabelValues("rate_spike").Inc()
		return result, nil
	}

	result.Detail = fmt.Sprintf("no spike: %d events in the last %.0f minutes", currentCount, s.cfg.CurrentWindow.Minutes())
	return result, nil
}

// DetectPatterns evaluates every configured pattern rule for one actor.
// Rules are independent; several may fire at once and each is reported on
// its own.
func (s *anomalyService) DetectPatterns(ctx context.Context, actorID uint) ([]dto.AnomalyResponse, error) {
	now := s.now()
	results := make([]dto.AnomalyResponse, 0, len(s.cfg.Patterns))

	for _, rule := range s.cfg.Patterns {
		since := now.Add(-rule.Window)
		count, err := s.activity.CountByTypesSince(ctx, actorID, rule.Types, since)
		if err != nil {
			return nil, err
		}

		if count >= int64(rule.Threshold) {
			actor := actorID
			results = append(results, dto.AnomalyResponse{
				Detected:      true,
				Pattern:       string(rule.Pattern),
				ActorID:       &actor,
				ObservedCount: count,
				Threshold:     float64(rule.Threshold),
				WindowStart:   since,
				WindowEnd:     now,
				Detail:        fmt.Sprintf("%d qualifying events in %.0f minutes (threshold %d)", count, rule.Window.Minutes(), rule.Threshold),
			})
			observability.AnomalyDetections().WithLabelValues(string(rule.Pattern)).Inc()
		}
	}

	return results, nil
}

// Sweep runs the platform-wide spike check and the per-actor pattern checks
// over every actor active inside the average window, enqueueing moderation
// work and appending suspicious_activity events for each positive result.
func (s *anomalyService) Sweep(ctx context.Context) (dto.AnomalySweepResponse, error) {
	summary := dto.AnomalySweepResponse{Results: []dto.AnomalyResponse{}}

	spike, err := s.DetectSpike(ctx, nil)
	if err != nil {
		return dto.AnomalySweepResponse{}, err
	}
	if spike.Detected {
		summary.Results = append(summary.Results, spike)
		s.raise(ctx, spike, &summary)
	}

	actors, err := s.activity.DistinctActorsSince(ctx, s.now().Add(-s.cfg.AverageWindow))
	if err != nil {
		return dto.AnomalySweepResponse{}, err
	}
	summary.SweptActors = len(actors)

	for _, actor := range actors {
		hits, err := s.DetectPatterns(ctx, actor)
		if err != nil {
			return dto.AnomalySweepResponse{}, err
		}
		for _, hit := range hits {
			summary.Results = append(summary.Results, hit)
			s.raise(ctx, hit, &summary)
		}
	}

	return summary, nil
}

// raise converts one positive detection into a queue item and an activity
// event. Both are best effort: a failed enqueue is logged, not returned, so
// one broken detection does not abort the sweep.
func (s *anomalyService) raise(ctx context.Context, result dto.AnomalyResponse, summary *dto.AnomalySweepResponse) {
	targetType := models.TargetSystem
	targetID := uint(0)
	title := "Platform-wide activity spike"
	if result.ActorID != nil {
		targetType = models.TargetUser
		targetID = *result.ActorID
		title = fmt.Sprintf("Suspicious pattern: %s", result.Pattern)
	}

	priority := anomalyPriority(result)
	if s.queue != nil {
		_, err := s.queue.Enqueue(ctx, dto.EnqueueRequest{
			ItemType:    string(models.QueueItemReport),
			Title:       title,
			Description: result.Detail,
			TargetType:  string(targetType),
			TargetID:    targetID,
			Priority:    &priority,
			System:      true,
			TargetData: map[string]interface{}{
				"pattern":        result.Pattern,
				"observed_count": result.ObservedCount,
				"threshold":      result.Threshold,
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("pattern", result.Pattern).Msg("failed to enqueue anomaly result")
		} else {
			summary.ItemsEnqueued++
		}
	}

	if s.recorder != nil {
		_, err := s.recorder.Record(ctx, ActivityEntry{
			Type:       models.ActivitySuspicious,
			ActorID:    result.ActorID,
			TargetType: targetType,
			TargetID:   targetID,
			Action:     "anomaly detected",
			Severity:   models.SeverityWarning,
			Metadata: map[string]interface{}{
				"pattern":        result.Pattern,
				"observed_count": result.ObservedCount,
				"detail":         result.Detail,
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to record suspicious activity event")
		} else {
			summary.EventsRecorded++
		}
	}
}

// anomalyPriority maps detection weight onto the queue priority band: the
// further past its threshold a result landed, the more urgent the item.
func anomalyPriority(result dto.AnomalyResponse) int {
	if result.Threshold <= 0 {
		return 5
	}
	ratio := float64(result.ObservedCount) / result.Threshold
	switch {
	case ratio >= 3:
		return 9
	case ratio >= 2:
		return 7
	default:
		return 5
	}
}
