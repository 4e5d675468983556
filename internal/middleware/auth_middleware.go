package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"insuranceInsights/domain"
	"insuranceInsights/pkg/logger"
	"insuranceInsights/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Context keys set by AuthMiddlewareWithRedis.
const (
	ContextUserID  = "user_id"
	ContextRole    = "role"
	ContextTokenID = "token_id"
)

// TokenValidator checks a bearer token against the token registry.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
}

// AuthMiddlewareWithRedis requires a signed, unexpired and still registered token.
func AuthMiddlewareWithRedis(tokenValidator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			// Browsers cannot set headers on a websocket handshake.
			if authHeader == "" && websocketUpgrade(c.Request()) {
				if token := c.QueryParam("access_token"); token != "" {
					authHeader = "Bearer " + token
				}
			}
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse("UNAUTHORIZED", "Missing authorization header"))
			}

			tokenParts := strings.Fields(authHeader)
			if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, ErrorResponse("UNAUTHORIZED", "Invalid authorization format"))
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, err := tokenValidator.ValidateToken(ctx, tokenParts[1])
			if err != nil {
				logger.Warn("rejected bearer token", "path", c.Path(), "error", err)
				return c.JSON(http.StatusUnauthorized, ErrorResponse("UNAUTHORIZED", "Token expired or invalid"))
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextTokenID, claims.ID)

			return next(c)
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(string)
			if !ok || role != domain.RoleAdmin {
				return c.JSON(http.StatusForbidden, ErrorResponse("FORBIDDEN", "Admin access required"))
			}

			return next(c)
		}
	}
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(echo.HeaderUpgrade), "websocket")
}
