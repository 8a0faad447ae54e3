package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackverse/hackverse-admin-api/internal/service"
	"github.com/hackverse/hackverse-admin-api/internal/utils"
)

// AnomalyHandler exposes on-demand anomaly detection endpoints. The periodic
// sweep runs in the background; these routes let moderators probe a specific
// actor or trigger a sweep by hand.
type AnomalyHandler struct {
	service service.AnomalyService
	logger  zerolog.Logger
}

// NewAnomalyHandler constructs the handler.
func NewAnomalyHandler(service service.AnomalyService, logger zerolog.Logger) *AnomalyHandler {
	return &AnomalyHandler{
		service: service,
		logger:  logger.With().Str("component", "anomaly_handler").Logger(),
	}
}

// Register attaches anomaly detection routes to the router group.
func (h *AnomalyHandler) Register(router fiber.Router) {
	router.Get("/spike", h.spike)
	router.Get("/actors/:id", h.actorPatterns)
	router.Post("/sweep", h.sweep)
}

func (h *AnomalyHandler) spike(c *fiber.Ctx) error {
	var actorID *uint
	raw, err := parseQueryInt(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
	}
	if raw > 0 {
		id := uint(raw)
		actorID = &id
	}

	result, err := h.service.DetectSpike(c.Context(), actorID)
	if err != nil {
		h.logger.Error().Err(err).Msg("spike detection failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "spike detection failed")
	}

	return utils.SendSuccess(c, "spike detection", result)
}

func (h *AnomalyHandler) actorPatterns(c *fiber.Ctx) error {
	actorID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
	}

	results, err := h.service.DetectPatterns(c.Context(), actorID)
	if err != nil {
		h.logger.Error().Err(err).Msg("pattern detection failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "pattern detection failed")
	}

	return utils.SendSuccess(c, "pattern detection", results)
}

func (h *AnomalyHandler) sweep(c *fiber.Ctx) error {
	summary, err := h.service.Sweep(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("anomaly sweep failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "anomaly sweep failed")
	}

	return utils.SendSuccess(c, "anomaly sweep", summary)
}
