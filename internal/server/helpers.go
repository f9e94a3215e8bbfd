package server

import (
	"errors"
	"strconv"

	"quill/internal/models"
	"quill/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already wrote the error response;
// the handler just returns nil.
var errResponseWritten = errors.New("response already written")

// currentUserID returns the authenticated user ID or policy.AnonymousID.
func (s *Server) currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return policy.AnonymousID
}

// parsePage reads the `page` query parameter. Absent means page 1; anything
// not a positive integer is a client error. A page beyond the data is valid
// and simply yields an empty result.
func parsePage(c *fiber.Ctx) (int, error) {
	raw := c.Query("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("page must be a positive integer"))
		return 0, errResponseWritten
	}
	return page, nil
}

// parseID reads a positive integer route parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid "+name))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondServiceError maps service-layer error codes onto HTTP statuses in
// one place.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	status := fiber.StatusInternalServerError
	switch appErr.Code {
	case models.CodeNotFound:
		status = fiber.StatusNotFound
	case models.CodeValidation:
		status = fiber.StatusBadRequest
	case models.CodeUnauthorized:
		status = fiber.StatusForbidden
	}
	return models.RespondWithError(c, status, appErr)
}
