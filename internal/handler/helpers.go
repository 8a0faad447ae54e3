package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hackverse/hackverse-admin-api/internal/service"
	"github.com/hackverse/hackverse-admin-api/internal/utils"
)

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseParamID(c *fiber.Ctx, key string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// sendQueueError maps the moderation state-machine error taxonomy onto HTTP
// statuses. State violations surface as conflicts, never as silent coercion.
func sendQueueError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQueueItemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "queue item not found")
	case errors.Is(err, service.ErrAlreadyClaimed):
		return utils.SendError(c, fiber.StatusConflict, "queue item already claimed")
	case errors.Is(err, service.ErrNotClaimed):
		return utils.SendError(c, fiber.StatusConflict, "queue item not claimed")
	case errors.Is(err, service.ErrNotClaimedByYou):
		return utils.SendError(c, fiber.StatusConflict, "queue item claimed by another moderator")
	case errors.Is(err, service.ErrAlreadyResolved):
		return utils.SendError(c, fiber.StatusConflict, "queue item already resolved")
	case isValidationError(err), errors.Is(err, service.ErrInvalidTargetType), errors.Is(err, service.ErrInvalidActivityType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	return utils.SendError(c, fiber.StatusInternalServerError, "moderation queue operation failed")
}
