package handler

import (
	"errors"
	"log"
	"time"

	"go-pos-api/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps classified errors to HTTP responses. Validation batches
// come back whole; internal failures never leak diagnostic detail, only a
// correlation id that can be grepped out of the server log.
func respondError(c *fiber.Ctx, err error) error {
	var list apperr.ValidationErrors
	if errors.As(err, &list) {
		return c.Status(400).JSON(fiber.Map{
			"kind":   list.Kind(),
			"error":  list.Error(),
			"errors": list,
		})
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.InternalError {
		return c.Status(apperr.HTTPStatus(appErr.Kind)).JSON(fiber.Map{
			"kind":  appErr.Kind,
			"error": appErr.Message,
		})
	}

	correlationID := uuid.New().String()
	log.Printf("internal error [%s]: %v", correlationID, err)
	return c.Status(500).JSON(fiber.Map{
		"kind":           apperr.InternalError,
		"error":          "internal server error",
		"correlation_id": correlationID,
		"timestamp":      time.Now().UTC(),
	})
}
