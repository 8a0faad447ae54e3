package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackverse/hackverse-admin-api/internal/dto"
	"github.com/hackverse/hackverse-admin-api/internal/service"
	"github.com/hackverse/hackverse-admin-api/internal/utils"
)

// ModerationHandler exposes the moderation queue endpoints.
type ModerationHandler struct {
	service service.ModerationQueueService
	logger  zerolog.Logger
}

// NewModerationHandler constructs the handler.
func NewModerationHandler(service service.ModerationQueueService, logger zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		logger:  logger.With().Str("component", "moderation_handler").Logger(),
	}
}

// Register attaches moderation queue routes to the router group.
func (h *ModerationHandler) Register(router fiber.Router) {
	router.Get("/queue", h.list)
	router.Post("/queue", h.enqueue)
	router.Post("/queue/:id/claim", h.claim)
	router.Post("/queue/:id/release", h.release)
	router.Post("/queue/:id/resolve", h.resolve)
}

func (h *ModerationHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	minPriority, err := parseQueryInt(c, "min_priority")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid min priority")
	}
	maxPriority, err := parseQueryInt(c, "max_priority")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid max priority")
	}

	req := dto.QueueListRequest{
		ItemType:    c.Query("item_type"),
		Status:      c.Query("status"),
		MinPriority: minPriority,
		MaxPriority: maxPriority,
		Page:        page,
		PageSize:    pageSize,
	}

	claimedBy, err := parseQueryInt(c, "claimed_by")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid claimed_by")
	}
	if claimedBy > 0 {
		id := uint(claimedBy)
		req.ClaimedBy = &id
	}

	response, err := h.service.List(c.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list moderation queue")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list moderation queue")
	}

	return utils.SendSuccess(c, "moderation queue", response)
}

func (h *ModerationHandler) enqueue(c *fiber.Ctx) error {
	var payload dto.EnqueueRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Reports submitted over the API always carry the caller as reporter;
	// the system flag is reserved for internal detectors.
	payload.System = false
	if payload.ReporterID == nil {
		if actorID := userIDFromContext(c); actorID != 0 {
			payload.ReporterID = &actorID
		}
	}

	item, err := h.service.Enqueue(c.Context(), payload)
	if err != nil {
		return sendQueueError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "item enqueued", item)
}

func (h *ModerationHandler) claim(c *fiber.Ctx) error {
	itemID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid item id")
	}
	claimant := userIDFromContext(c)
	if claimant == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing authenticated user")
	}

	item, err := h.service.Claim(c.Context(), itemID, claimant)
	if err != nil {
		return sendQueueError(c, err)
	}

	return utils.SendSuccess(c, "item claimed", item)
}

func (h *ModerationHandler) release(c *fiber.Ctx) error {
	itemID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid item id")
	}
	claimant := userIDFromContext(c)
	if claimant == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing authenticated user")
	}

	item, err := h.service.Release(c.Context(), itemID, claimant)
	if err != nil {
		return sendQueueError(c, err)
	}

	return utils.SendSuccess(c, "item released", item)
}

func (h *ModerationHandler) resolve(c *fiber.Ctx) error {
	itemID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid item id")
	}
	claimant := userIDFromContext(c)
	if claimant == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing authenticated user")
	}

	var payload dto.ResolveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Resolve(c.Context(), itemID, claimant, payload)
	if err != nil {
		return sendQueueError(c, err)
	}

	return utils.SendSuccess(c, "item resolved", item)
}
