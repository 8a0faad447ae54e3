package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/middleware"
	"github.com/hackverse/hackverse-admin-api/internal/service"
	"github.com/hackverse/hackverse-admin-api/internal/utils"
)

// OrganizerHandler exposes the organizer flag and revoke workflow.
type OrganizerHandler struct {
	service service.OrganizerWorkflowService
	logger  zerolog.Logger
}

// NewOrganizerHandler constructs the handler.
func NewOrganizerHandler(service service.OrganizerWorkflowService, logger zerolog.Logger) *OrganizerHandler {
	return &OrganizerHandler{
		service: service,
		logger:  logger.With().Str("component", "organizer_handler").Logger(),
	}
}

// Register attaches organizer workflow routes to the router group. Revoke is
// destructive, so it takes an extra admin-only guard on top of the group's.
func (h *OrganizerHandler) Register(router fiber.Router) {
	router.Post("/:id/flag", h.flag)
	router.Post("/:id/unflag", h.unflag)
	router.Post("/:id/revoke", middleware.WithAuth(h.revoke, middleware.AuthOptions{
		Role:        middleware.AuthRoleAdmin,
		RequireUser: true,
	}))
	router.Get("/:id/review", h.review)
}

func (h *OrganizerHandler) flag(c *fiber.Ctx) error {
	organizerID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid organizer id")
	}
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing authenticated user")
	}

	var payload dto.FlagOrganizerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	score, err := h.service.Flag(c.Context(), organizerID, payload, actorID)
	if err != nil {
		return h.sendWorkflowError(c, err, "failed to flag organizer")
	}

	return utils.SendSuccess(c, "organizer flagged", score)
}

func (h *OrganizerHandler) unflag(c *fiber.Ctx) error {
	organizerID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid organizer id")
	}
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing authenticated user")
	}

	var payload dto.UnflagOrganizerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	score, err := h.service.Unflag(c.Context(), organizerID, payload, actorID)
	if err != nil {
		return h.sendWorkflowError(c, err, "failed to unflag organizer")
	}

	return utils.SendSuccess(c, "organizer unflagged", score)
}

func (h *OrganizerHandler) revoke(c *fiber.Ctx) error {
	organizerID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid organizer id")
	}
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing authenticated user")
	}

	var payload dto.RevokeOrganizerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Revoke(c.Context(), organizerID, payload, actorID)
	if err != nil {
		return h.sendWorkflowError(c, err, "failed to revoke organizer")
	}

	if len(result.NotifyErrors) > 0 {
		h.logger.Warn().
			Uint("organizer_id", organizerID).
			Strs("notify_errors", result.NotifyErrors).
			Msg("revoke completed with notification failures")
	}

	return utils.SendSuccess(c, "organizer revoked", result)
}

func (h *OrganizerHandler) review(c *fiber.Ctx) error {
	organizerID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid organizer id")
	}

	review, err := h.service.RequiresManualReview(c.Context(), organizerID)
	if err != nil {
		return h.sendWorkflowError(c, err, "failed to check review state")
	}

	return utils.SendSuccess(c, "manual review state", review)
}

func (h *OrganizerHandler) sendWorkflowError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrOrganizerNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "organizer not found")
	case errors.Is(err, service.ErrNotAnOrganizer):
		return utils.SendError(c, fiber.StatusConflict, "user is not an organizer")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
