package presenter

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/careerfair/resumebank/pkg/resume"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, ErrorResponse{Message: message})
}

// DomainError maps the resume error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an unexpected failure and surfaces
// as a 500 with its raw detail for diagnostics.
func DomainError(c *fiber.Ctx, err error) error {
	var (
		validation *resume.ValidationError
		notFound   *resume.NotFoundError
		permission *resume.PermissionError
		storage    *resume.StorageError
		database   *resume.DatabaseError
	)
	switch {
	case errors.As(err, &validation):
		return Error(c, http.StatusBadRequest, validation.Msg)
	case errors.As(err, &notFound):
		return Error(c, http.StatusNotFound, notFound.Msg)
	case errors.As(err, &permission):
		return Error(c, http.StatusForbidden, permission.Msg)
	case errors.As(err, &storage):
		return Error(c, http.StatusInternalServerError, storage.Error())
	case errors.As(err, &database):
		return Error(c, http.StatusInternalServerError, database.Error())
	default:
		return Error(c, http.StatusInternalServerError, "unexpected error: "+err.Error())
	}
}
