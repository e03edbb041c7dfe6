package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrProblemNotFound      = errors.New("problem not found")
	ErrLanguageNotSupported = errors.New("language not supported")

	// ErrProfileNotFound means the user has never graded a submission, so no
	// profile row exists yet.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrConfiguration means the problem's test data is misconfigured (e.g. a
	// DRIVER_CODE problem without a template). Not retryable; content authors
	// have to fix the problem.
	ErrConfiguration = errors.New("problem configuration error")

	// ErrJudgeUnavailable covers transport failures and exhausted poll
	// budgets against the external judge. The grading call fails closed:
	// nothing is persisted, the caller may retry later.
	ErrJudgeUnavailable = errors.New("judge unavailable")

	// ErrInternal is an unexpected judge response shape or engine bug.
	ErrInternal = errors.New("internal error")
)

// HTTPStatusFromError maps engine errors onto HTTP statuses for handlers.
func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrProblemNotFound), errors.Is(err, ErrProfileNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrLanguageNotSupported):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrConfiguration):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrJudgeUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
