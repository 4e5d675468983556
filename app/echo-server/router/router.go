package router

import (
	"net/http"

	"insuranceInsights/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupAuthRoutes(api *echo.Group, handler *rest.AuthHandler, authRequired echo.MiddlewareFunc) {
	auth := api.Group("/auth")

	auth.POST("/login", handler.Login)
	auth.POST("/logout", handler.Logout, authRequired)
	auth.POST("/logout-all", handler.LogoutAll, authRequired)
	auth.GET("/me", handler.Me, authRequired)
}

func SetupDashboardRoutes(api *echo.Group, handler *rest.DashboardHandler, authRequired echo.MiddlewareFunc) {
	dashboard := api.Group("/dashboard", authRequired)

	dashboard.GET("", handler.GetDashboard)
	dashboard.GET("/filters", handler.GetFilterOptions)
	dashboard.GET("/dataset", handler.GetDatasetInfo)
	dashboard.GET("/charts/:view", handler.GetChart)
	dashboard.GET("/export", handler.Export)
}

func SetupEventRoutes(api *echo.Group, handler *rest.EventsHandler, authRequired echo.MiddlewareFunc) {
	api.GET("/dashboard/events", handler.Stream, authRequired)
}

func SetupAdminRoutes(api *echo.Group, handler *rest.DashboardHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin", authRequired, adminOnly)

	admin.POST("/dataset/reload", handler.Reload)
}

func SetupSystemRoutes(e *echo.Echo, version string) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
