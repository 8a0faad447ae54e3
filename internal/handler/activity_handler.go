package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/service"
	"github.com/hackverse/hackverse-admin-api/internal/utils"
)

// ActivityHandler exposes the activity stream endpoints.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity stream routes to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	if limit <= 0 {
		limit = 50
	} else if limit > 200 {
		limit = 200
	}

	req := dto.ActivityListRequest{
		Severity:   c.Query("severity"),
		TargetType: c.Query("target_type"),
		Cursor:     c.Query("cursor"),
		Limit:      limit,
	}

	if raw := c.Query("types"); raw != "" {
		req.Types = splitAndTrim(raw)
	}

	actorID, err := parseQueryInt(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
	}
	if actorID > 0 {
		id := uint(actorID)
		req.ActorID = &id
	}

	targetID, err := parseQueryInt(c, "target_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid target id")
	}
	req.TargetID = uint(targetID)

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid since timestamp")
		}
		req.Since = since
	}
	if raw := c.Query("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid until timestamp")
		}
		req.Until = until
	}

	response, err := h.service.List(c.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidActivityType) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to list activities")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list activities")
	}

	return utils.SendSuccess(c, "activities", response)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := h.service.Create(c.Context(), payload)
	if err != nil {
		if isValidationError(err) || errors.Is(err, service.ErrInvalidActivityType) || errors.Is(err, service.ErrInvalidTargetType) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to append activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to append activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity recorded", entry)
}
