package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
)

// activityCountsStub answers the counting queries from canned numbers keyed
// by window length (CountBetween) and activity type (CountByTypesSince).
type activityCountsStub struct {
	countsByWindow map[time.Duration]int64
	countsByType   map[models.ActivityType]int64
	actors         []uint
}

func (s *activityCountsStub) Create(ctx context.Context, item *models.ActivityItem) error {
	return nil
}

func (s *activityCountsStub) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityItem, bool, string, error) {
	return nil, false, "", nil
}

func (s *activityCountsStub) CountBetween(ctx context.Context, since, until time.Time, actorID *uint) (int64, error) {
	return s.countsByWindow[until.Sub(since).Round(time.Minute)], nil
}

func (s *activityCountsStub) CountByTypesSince(ctx context.Context, actorID uint, types []models.ActivityType, since time.Time) (int64, error) {
	var total int64
	for _, activityType := range types {
		total += s.countsByType[activityType]
	}
	return total, nil
}

func (s *activityCountsStub) CountTargeting(ctx context.Context, types []models.ActivityType, targetType models.TargetType, targetID uint) (int64, error) {
	return 0, nil
}

func (s *activityCountsStub) CountByActor(ctx context.Context, actorID uint, types []models.ActivityType) (int64, error) {
	return 0, nil
}

func (s *activityCountsStub) DistinctActorsSince(ctx context.Context, since time.Time) ([]uint, error) {
	return s.actors, nil
}

type enqueuerStub struct {
	requests []dto.EnqueueRequest
	fail     bool
}

func (s *enqueuerStub) Enqueue(ctx context.Context, req dto.EnqueueRequest) (dto.QueueItemResponse, error) {
	if s.fail {
		return dto.QueueItemResponse{}, errors.New("queue unavailable")
	}
	s.requests = append(s.requests, req)
	return dto.QueueItemResponse{ID: uint(len(s.requests))}, nil
}

type recorderStub struct {
	entries []ActivityEntry
}

func (s *recorderStub) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	s.entries = append(s.entries, entry)
	return dto.ActivityResponse{}, nil
}

func TestDetectSpikeFiresAboveThreshold(t *testing.T) {
	// 12 events in the 5-minute window against a 20-event hourly baseline:
	// 2.4/min versus 0.33/min, far past the 2x threshold.
	repo := &activityCountsStub{countsByWindow: map[time.Duration]int64{
		5 * time.Minute:  12,
		60 * time.Minute: 20,
	}}
	svc := NewAnomalyService(repo, nil, nil, DefaultAnomalyConfig(), testLogger())

	result, err := svc.DetectSpike(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, result.Detected)
	require.Equal(t, int64(12), result.ObservedCount)
	require.Nil(t, result.ActorID)
}

func TestDetectSpikeBelowMinimumActivities(t *testing.T) {
	// The rate ratio alone would fire, but three events are below the floor.
	repo := &activityCountsStub{countsByWindow: map[time.Duration]int64{
		5 * time.Minute:  3,
		60 * time.Minute: 4,
	}}
	svc := NewAnomalyService(repo, nil, nil, DefaultAnomalyConfig(), testLogger())

	result, err := svc.DetectSpike(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, result.Detected)
}

func TestDetectSpikeQuietBaseline(t *testing.T) {
	repo := &activityCountsStub{countsByWindow: map[time.Duration]int64{
		5 * time.Minute:  11,
		60 * time.Minute: 11,
	}}
	svc := NewAnomalyService(repo, nil, nil, DefaultAnomalyConfig(), testLogger())

	result, err := svc.DetectSpike(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, result.Detected, "a burst with no prior baseline is still a spike")
}

func TestDetectPatternsEvaluatesRulesIndependently(t *testing.T) {
	repo := &activityCountsStub{countsByType: map[models.ActivityType]int64{
		models.ActivityReportFiled:      9,  // threshold 8
		models.ActivityProjectSubmitted: 12, // threshold 12
		models.ActivityUserLogin:        19, // threshold 20, stays quiet
	}}
	svc := NewAnomalyService(repo, nil, nil, DefaultAnomalyConfig(), testLogger())

	results, err := svc.DetectPatterns(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, results, 2)

	patterns := []string{results[0].Pattern, results[1].Pattern}
	require.ElementsMatch(t, []string{"repeated_reports", "spam_submissions"}, patterns)
	for _, result := range results {
		require.NotNil(t, result.ActorID)
		require.Equal(t, uint(7), *result.ActorID)
	}
}

func TestSweepEnqueuesAndRecordsDetections(t *testing.T) {
	repo := &activityCountsStub{
		countsByWindow: map[time.Duration]int64{
			5 * time.Minute:  30,
			60 * time.Minute: 40,
		},
		countsByType: map[models.ActivityType]int64{
			models.ActivityReportFiled: 10,
		},
		actors: []uint{7},
	}
	queue := &enqueuerStub{}
	recorder := &recorderStub{}
	svc := NewAnomalyService(repo, queue, recorder, DefaultAnomalyConfig(), testLogger())

	summary, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Results, 2, "platform spike plus one actor pattern")
	require.Equal(t, 2, summary.ItemsEnqueued)
	require.Equal(t, 2, summary.EventsRecorded)
	require.Equal(t, 1, summary.SweptActors)

	require.Len(t, queue.requests, 2)
	for _, req := range queue.requests {
		require.True(t, req.System)
		require.NotNil(t, req.Priority)
	}
	for _, entry := range recorder.entries {
		require.Equal(t, models.ActivitySuspicious, entry.Type)
		require.Equal(t, models.SeverityWarning, entry.Severity)
	}
}

func TestSweepToleratesBrokenQueue(t *testing.T) {
	repo := &activityCountsStub{
		countsByWindow: map[time.Duration]int64{
			5 * time.Minute:  30,
			60 * time.Minute: 40,
		},
	}
	queue := &enqueuerStub{fail: true}
	recorder := &recorderStub{}
	svc := NewAnomalyService(repo, queue, recorder, DefaultAnomalyConfig(), testLogger())

	summary, err := svc.Sweep(context.Background())
	require.NoError(t, err, "a failing queue must not abort the sweep")
	require.Equal(t, 0, summary.ItemsEnqueued)
	require.Equal(t, 1, summary.EventsRecorded)
}

func TestAnomalyPriorityScalesWithSeverity(t *testing.T) {
	require.Equal(t, 5, anomalyPriority(dto.AnomalyResponse{ObservedCount: 9, Threshold: 8}))
	require.Equal(t, 7, anomalyPriority(dto.AnomalyResponse{ObservedCount: 16, Threshold: 8}))
	require.Equal(t, 9, anomalyPriority(dto.AnomalyResponse{ObservedCount: 24, Threshold: 8}))
}
