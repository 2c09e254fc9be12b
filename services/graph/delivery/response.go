package delivery

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/matuszelenak/trojsten-graph/config"
	"github.com/matuszelenak/trojsten-graph/domain"
)

// statusOf maps usecase errors onto HTTP statuses. Integrity errors such as
// ErrNotParticipant fall through to 500.
func statusOf(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrSelfRelationship),
		errors.Is(err, domain.ErrConfirmationPhrase):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrInactiveAccount):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyExists):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error, username *string, functionName, message string) error {
	status := statusOf(err)
	config.PrintLogInfo(username, status, functionName)

	body := fiber.Map{
		"success": false,
		"message": message,
		"error":   err.Error(),
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body["errors"] = verr.Errors
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx, username *string, functionName string) error {
	config.PrintLogInfo(username, fiber.StatusBadRequest, functionName)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Invalid request body",
	})
}

func ok(c *fiber.Ctx, status int, username *string, functionName, message string, data any) error {
	config.PrintLogInfo(username, status, functionName)
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func claimsOf(c *fiber.Ctx) (*domain.Claims, *string) {
	claims, _ := c.Locals("user").(*domain.Claims)
	if claims == nil {
		return nil, nil
	}
	return claims, &claims.Email
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Errors: []domain.FieldError{{Row: -1, Field: name, Message: "Invalid id"}}}
	}
	return uint(id), nil
}
