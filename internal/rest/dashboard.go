package rest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"insuranceInsights/domain"
	"insuranceInsights/internal/render"
	"insuranceInsights/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type DashboardService interface {
	Dashboard(ctx context.Context, filters domain.Filters, withPreview bool) (*domain.Dashboard, error)
	Export(ctx context.Context, filters domain.Filters) (*domain.Dashboard, []domain.Applicant, error)
	FilterOptions(ctx context.Context) (*domain.FilterOptions, error)
	DatasetInfo(ctx context.Context) (*domain.DatasetInfo, error)
	Reload(ctx context.Context) (*domain.DatasetInfo, error)
}

type DashboardHandler struct {
	dashboardService DashboardService
	timeout          time.Duration
}

func NewDashboardHandler(dashboardService DashboardService, timeout time.Duration) *DashboardHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DashboardHandler{
		dashboardService: dashboardService,
		timeout:          timeout,
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func filtersFromQuery(c echo.Context) (domain.Filters, error) {
	return domain.ParseFilters(
		c.QueryParam("bmi_category"),
		c.QueryParam("age_group"),
		c.QueryParam("product_code"),
		c.QueryParam("response"),
	)
}

func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	filters, err := filtersFromQuery(c)
	if err != nil {
		return err
	}

	preview, _ := strconv.ParseBool(c.QueryParam("preview"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	d, err := h.dashboardService.Dashboard(ctx, filters, preview)
	if err != nil {
		return err
	}

	message := "Dashboard computed"
	if d.NoData {
		message = "No applicants match the selected filters"
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: message, Data: d})
}

func (h *DashboardHandler) GetFilterOptions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	opts, err := h.dashboardService.FilterOptions(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "Filter options", Data: opts})
}

func (h *DashboardHandler) GetDatasetInfo(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	info, err := h.dashboardService.DatasetInfo(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "Dataset info", Data: info})
}

func (h *DashboardHandler) GetChart(c echo.Context) error {
	view := c.Param("view")

	filters, err := filtersFromQuery(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	d, err := h.dashboardService.Dashboard(ctx, filters, false)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := render.RenderChart(view, d.Views, &buf); err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (h *DashboardHandler) Export(c echo.Context) error {
	filters, err := filtersFromQuery(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	d, rows, err := h.dashboardService.Export(ctx, filters)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := render.WriteWorkbook(d, rows, &buf); err != nil {
		logger.Error("failed to build workbook", "error", err)
		return err
	}

	filename := fmt.Sprintf("insurance-insights-%s.xlsx", d.GeneratedAt.Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *DashboardHandler) Reload(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	info, err := h.dashboardService.Reload(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "Dataset reloaded", Data: info})
}
