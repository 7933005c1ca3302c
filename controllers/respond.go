package controller

import (
	"errors"
	"log"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"hackforge/services"
	"hackforge/utils"
)

// serviceError maps the service error taxonomy onto HTTP statuses.
// Authorization failures are 403, missing entities 404, invariant violations
// and lifecycle conflicts 409, bad input 400. Anything unknown is a store
// failure: 503, captured to Sentry, retryable by the client with backoff.
func serviceError(c *fiber.Ctx, logger *log.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return utils.ErrorResponse(c, fiber.StatusForbidden, err.Error(), nil)

	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrJoinRequestNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, err.Error(), nil)

	case errors.Is(err, services.ErrInvalidRecipient),
		errors.Is(err, services.ErrInvalidTarget),
		errors.Is(err, services.ErrMissingNotes):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)

	case errors.Is(err, services.ErrAlreadyInTeam),
		errors.Is(err, services.ErrTeamFull),
		errors.Is(err, services.ErrDuplicateInvite),
		errors.Is(err, services.ErrDuplicateRequest),
		errors.Is(err, services.ErrTeamNameTaken),
		errors.Is(err, services.ErrAlreadyResolved),
		errors.Is(err, services.ErrInvalidState):
		return utils.ErrorResponse(c, fiber.StatusConflict, err.Error(), nil)

	default:
		logger.Printf("unexpected service error: %v", err)
		sentry.CaptureException(err)
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Temporarily unable to process the request", nil)
	}
}
