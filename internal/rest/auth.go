package rest

import (
	"context"
	"net/http"
	"time"

	"insuranceInsights/business/user"
	"insuranceInsights/domain"
	"insuranceInsights/internal/middleware"
	"insuranceInsights/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*user.LoginResult, error)
	Logout(ctx context.Context, tokenID string) error
	LogoutAll(ctx context.Context, userID string) error
	Profile(ctx context.Context, userID string) (domain.User, error)
}

type AuthHandler struct {
	authService AuthService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest

	if err := c.Bind(&req); err != nil {
		logger.Warn("invalid login body", "error", err)
		return c.JSON(http.StatusBadRequest, middleware.ErrorResponse("BAD_REQUEST", "Invalid request body"))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, middleware.ErrorResponse("BAD_REQUEST", "Username and password are required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "Login successful", Data: res})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	tokenID, _ := c.Get(middleware.ContextTokenID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.authService.Logout(ctx, tokenID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "Logout successful"})
}

func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, _ := c.Get(middleware.ContextUserID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.authService.LogoutAll(ctx, userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "All sessions revoked"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := c.Get(middleware.ContextUserID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	u, err := h.authService.Profile(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "Current user", Data: u})
}
