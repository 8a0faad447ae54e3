package handler_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hackverse/hackverse-admin-api/internal/config"
	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/handler"
	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
	"github.com/hackverse/hackverse-admin-api/internal/router"
	"github.com/hackverse/hackverse-admin-api/internal/service"
)

func setupAnomalyApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ActivityItem{}, &models.QueueItem{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	queueService := service.NewModerationQueueService(
		repository.NewQueueRepository(db), nil, activityService, validate, nil, 0, logger)
	anomalyService := service.NewAnomalyService(
		repository.NewActivityLogRepository(db), queueService, activityService,
		service.DefaultAnomalyConfig(), logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		AnomalyHandler: handler.NewAnomalyHandler(anomalyService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", "moderator")
			return c.Next()
		},
	})

	return app, db
}

func seedActivityBurst(t *testing.T, db *gorm.DB, actorID uint, activityType string, n int, age time.Duration) {
	t.Helper()
	for i := 0; i < n; i++ {
		actor := actorID
		item := models.ActivityItem{
			Type:       models.ActivityType(activityType),
			ActorID:    &actor,
			TargetType: models.TargetUser,
			TargetID:   1,
			Action:     "seeded event",
			Severity:   models.SeverityInfo,
		}
		require.NoError(t, db.Create(&item).Error)
		require.NoError(t, db.Model(&models.ActivityItem{}).
			Where("id = ?", item.ID).
			Update("created_at", time.Now().Add(-age)).Error)
	}
}

func TestAnomalyHandlerSpikeQuietPlatform(t *testing.T) {
	app, _ := setupAnomalyApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/anomalies/spike", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result dto.AnomalyResponse
	decodeData(t, resp, &result)
	require.False(t, result.Detected)
}

func TestAnomalyHandlerSpikeDetectsBurst(t *testing.T) {
	app, db := setupAnomalyApp(t)

	// All recent, nothing in the baseline window beyond the burst itself.
	seedActivityBurst(t, db, 3, "user_login", 15, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/anomalies/spike", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result dto.AnomalyResponse
	decodeData(t, resp, &result)
	require.True(t, result.Detected)
	require.Equal(t, int64(15), result.ObservedCount)
}

func TestAnomalyHandlerActorPatterns(t *testing.T) {
	app, db := setupAnomalyApp(t)

	seedActivityBurst(t, db, 7, "report_filed", 9, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/anomalies/actors/7", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var results []dto.AnomalyResponse
	decodeData(t, resp, &results)
	require.Len(t, results, 1)
	require.Equal(t, "repeated_reports", results[0].Pattern)
	require.NotNil(t, results[0].ActorID)
	require.Equal(t, uint(7), *results[0].ActorID)
}

func TestAnomalyHandlerSweepEnqueues(t *testing.T) {
	app, db := setupAnomalyApp(t)

	seedActivityBurst(t, db, 7, "report_filed", 9, time.Minute)

	resp := postJSON(t, app, "/api/admin/anomalies/sweep", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary dto.AnomalySweepResponse
	decodeData(t, resp, &summary)
	require.NotEmpty(t, summary.Results)
	require.GreaterOrEqual(t, summary.ItemsEnqueued, 1)

	var queued int64
	require.NoError(t, db.Model(&models.QueueItem{}).Count(&queued).Error)
	require.GreaterOrEqual(t, queued, int64(1))
}
