package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/careerfair/resumebank/api/http/presenter"
	"github.com/careerfair/resumebank/pkg/auth"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	useCase auth.AuthUseCase
}

func NewAuthHandler(useCase auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{useCase: useCase}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r credentialsRequest) valid() bool {
	return strings.TrimSpace(r.Email) != "" && r.Password != ""
}

// Register creates an account and returns a fresh token.
// @Summary Register user
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body credentialsRequest true "registration payload"
// @Success 201 {object} map[string]any
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if !req.valid() {
		return presenter.Error(c, http.StatusBadRequest, "email and password are required")
	}

	result, err := h.useCase.Register(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			return presenter.Error(c, http.StatusConflict, "user already exists")
		}
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return presenter.Error(c, http.StatusBadRequest, "email and password are required")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to register user")
	}

	return presenter.JSON(c, http.StatusCreated, fiber.Map{
		"id":        result.User.ID.String(),
		"email":     result.User.Email,
		"isAdmin":   result.User.IsAdmin,
		"createdAt": result.User.CreatedAt,
		"token":     result.Token,
	})
}

// Login authenticates credentials and returns a token.
// @Summary Login
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body credentialsRequest true "login payload"
// @Success 200 {object} map[string]any
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if !req.valid() {
		return presenter.Error(c, http.StatusBadRequest, "email and password are required")
	}

	result, err := h.useCase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return presenter.Error(c, http.StatusUnauthorized, "invalid credentials")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to login")
	}

	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"id":      result.User.ID.String(),
		"email":   result.User.Email,
		"isAdmin": result.User.IsAdmin,
		"token":   result.Token,
	})
}
