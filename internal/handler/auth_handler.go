package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/venue-finder/internal/dto"
	"github.com/octobees/venue-finder/internal/service"
)

// Authenticator issues operator tokens.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	authService Authenticator
	tokenTTL    time.Duration
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService Authenticator, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, tokenTTL: tokenTTL}
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return Error(c, http.StatusBadRequest, "email and password are required")
	}

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return Error(c, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, service.ErrOperatorDisabled):
			return Error(c, http.StatusServiceUnavailable, "operator login disabled")
		default:
			return Error(c, http.StatusInternalServerError, "unable to authenticate")
		}
	}

	return Success(c, http.StatusOK, "login successful", dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
	})
}
