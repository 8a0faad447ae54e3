package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/service"
	"github.com/hackverse/hackverse-admin-api/internal/utils"
)

// TrustHandler exposes trust score lookup and recomputation endpoints.
type TrustHandler struct {
	service service.TrustService
	logger  zerolog.Logger
}

// NewTrustHandler constructs the handler.
func NewTrustHandler(service service.TrustService, logger zerolog.Logger) *TrustHandler {
	return &TrustHandler{
		service: service,
		logger:  logger.With().Str("component", "trust_handler").Logger(),
	}
}

// Register attaches trust score routes to the router group.
func (h *TrustHandler) Register(router fiber.Router) {
	router.Get("/users/:id", h.getUser)
	router.Post("/users/:id/recompute", h.recomputeUser)
	router.Get("/organizers/:id", h.getOrganizer)
	router.Post("/organizers/:id/recompute", h.recomputeOrganizer)
}

func (h *TrustHandler) getUser(c *fiber.Ctx) error {
	return h.get(c, models.SubjectUser)
}

func (h *TrustHandler) getOrganizer(c *fiber.Ctx) error {
	return h.get(c, models.SubjectOrganizer)
}

func (h *TrustHandler) get(c *fiber.Ctx, kind models.SubjectKind) error {
	subjectID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	score, err := h.service.Get(c.Context(), kind, subjectID)
	if err != nil {
		if errors.Is(err, service.ErrTrustScoreNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "trust score not computed yet")
		}
		h.logger.Error().Err(err).Msg("failed to load trust score")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load trust score")
	}

	return utils.SendSuccess(c, "trust score", score)
}

func (h *TrustHandler) recomputeUser(c *fiber.Ctx) error {
	subjectID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	score, err := h.service.RecomputeUser(c.Context(), subjectID)
	if err != nil {
		return h.sendRecomputeError(c, err)
	}

	return utils.SendSuccess(c, "trust score recomputed", score)
}

func (h *TrustHandler) recomputeOrganizer(c *fiber.Ctx) error {
	subjectID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	score, err := h.service.RecomputeOrganizer(c.Context(), subjectID)
	if err != nil {
		return h.sendRecomputeError(c, err)
	}

	return utils.SendSuccess(c, "trust score recomputed", score)
}

func (h *TrustHandler) sendRecomputeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrSubjectNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "subject not found")
	}
	h.logger.Error().Err(err).Msg("failed to recompute trust score")
	return utils.SendError(c, fiber.StatusInternalServerError, "failed to recompute trust score")
}
