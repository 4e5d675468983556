package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"insuranceInsights/business/dashboard"
	"insuranceInsights/business/dataset"
	"insuranceInsights/business/user"
	"insuranceInsights/domain"
	"insuranceInsights/internal/middleware"
	"insuranceInsights/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDashboardService struct {
	rows    []domain.Applicant
	err     error
	reloads int
	last    domain.Filters
}

func (s *stubDashboardService) Dashboard(ctx context.Context, f domain.Filters, withPreview bool) (*domain.Dashboard, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.last = f
	rows := dashboard.ApplyFilters(s.rows, f)
	d := &domain.Dashboard{
		DatasetHash: "abc",
		Filters:     f.Selection(),
		RowCount:    len(rows),
		NoData:      len(rows) == 0,
		Views:       dashboard.ComputeViews(rows),
		GeneratedAt: time.Now(),
	}
	if withPreview {
		d.Preview = rows
	}
	return d, nil
}

func (s *stubDashboardService) Export(ctx context.Context, f domain.Filters) (*domain.Dashboard, []domain.Applicant, error) {
	d, err := s.Dashboard(ctx, f, false)
	if err != nil {
		return nil, nil, err
	}
	return d, dashboard.ApplyFilters(s.rows, f), nil
}

func (s *stubDashboardService) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.FilterOptions{ProductCodes: []string{"All", "A1"}}, nil
}

func (s *stubDashboardService) DatasetInfo(ctx context.Context) (*domain.DatasetInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.DatasetInfo{RowCount: len(s.rows)}, nil
}

func (s *stubDashboardService) Reload(ctx context.Context) (*domain.DatasetInfo, error) {
	s.reloads++
	return s.DatasetInfo(ctx)
}

type stubAuth struct {
	tokens    map[string]*utils.JWTClaims
	logout    []string
	logoutAll []string
}

func (s *stubAuth) Login(ctx context.Context, username, password string) (*user.LoginResult, error) {
	if username != "analyst" || password != "s3cret-pass" {
		return nil, domain.ErrInvalidCredentials
	}
	return &user.LoginResult{Token: "viewer-token", User: domain.User{Username: username, Role: domain.RoleViewer}}, nil
}

func (s *stubAuth) Logout(ctx context.Context, tokenID string) error {
	s.logout = append(s.logout, tokenID)
	return nil
}

func (s *stubAuth) Profile(ctx context.Context, userID string) (domain.User, error) {
	switch userID {
	case "1":
		return domain.User{ID: 1, Username: "analyst", Role: domain.RoleViewer}, nil
	case "2":
		return domain.User{ID: 2, Username: "admin", Role: domain.RoleAdmin}, nil
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *stubAuth) LogoutAll(ctx context.Context, userID string) error {
	s.logoutAll = append(s.logoutAll, userID)
	return nil
}

func (s *stubAuth) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func newStubAuth() *stubAuth {
	viewer := &utils.JWTClaims{UserID: "1", Role: domain.RoleViewer}
	viewer.ID = "jti-viewer"
	admin := &utils.JWTClaims{UserID: "2", Role: domain.RoleAdmin}
	admin.ID = "jti-admin"
	return &stubAuth{tokens: map[string]*utils.JWTClaims{
		"viewer-token": viewer,
		"admin-token":  admin,
	}}
}

func newTestServer(svc DashboardService, auth *stubAuth) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler

	authRequired := middleware.AuthMiddlewareWithRedis(auth)
	authHandler := NewAuthHandler(auth)
	dashHandler := NewDashboardHandler(svc, time.Second)

	api := e.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout, authRequired)
	api.POST("/auth/logout-all", authHandler.LogoutAll, authRequired)
	api.GET("/auth/me", authHandler.Me, authRequired)
	dash := api.Group("/dashboard", authRequired)
	dash.GET("", dashHandler.GetDashboard)
	dash.GET("/filters", dashHandler.GetFilterOptions)
	dash.GET("/dataset", dashHandler.GetDatasetInfo)
	dash.GET("/charts/:view", dashHandler.GetChart)
	dash.GET("/export", dashHandler.Export)
	api.POST("/admin/dataset/reload", dashHandler.Reload, authRequired, middleware.AdminOnly())

	return e
}

func sampleRows() []domain.Applicant {
	return []domain.Applicant{
		dataset.NewApplicant(0, 0.1, 0.5, "A1", 1),
		dataset.NewApplicant(0.5, 0.5, 0.5, "D3", 5),
		dataset.NewApplicant(1, 0.2, 0.5, "A1", 8),
	}
}

func do(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestLogin(t *testing.T) {
	e := newTestServer(&stubDashboardService{}, newStubAuth())

	rec := do(e, http.MethodPost, "/api/v1/auth/login", "", `{"username":"analyst","password":"s3cret-pass"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "viewer-token")

	rec = do(e, http.MethodPost, "/api/v1/auth/login", "", `{"username":"analyst","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec).Error.Code)

	rec = do(e, http.MethodPost, "/api/v1/auth/login", "", `{"username":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	auth := newStubAuth()
	e := newTestServer(&stubDashboardService{}, auth)

	rec := do(e, http.MethodPost, "/api/v1/auth/logout", "viewer-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"jti-viewer"}, auth.logout)
}

func TestLogoutAll(t *testing.T) {
	auth := newStubAuth()
	e := newTestServer(&stubDashboardService{}, auth)

	rec := do(e, http.MethodPost, "/api/v1/auth/logout-all", "admin-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2"}, auth.logoutAll)

	rec = do(e, http.MethodPost, "/api/v1/auth/logout-all", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	e := newTestServer(&stubDashboardService{}, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/auth/me", "admin-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var u domain.User
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &u))
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(e, http.MethodGet, "/api/v1/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboard_RequiresToken(t *testing.T) {
	e := newTestServer(&stubDashboardService{rows: sampleRows()}, newStubAuth())

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/v1/dashboard", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/v1/dashboard", "forged", "").Code)
}

func TestDashboard_Filters(t *testing.T) {
	svc := &stubDashboardService{rows: sampleRows()}
	e := newTestServer(svc, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/dashboard?product_code=A1&age_group=76%2B&preview=true", "viewer-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var d domain.Dashboard
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &d))
	assert.Equal(t, 1, d.RowCount)
	assert.Len(t, d.Preview, 1)
	assert.Equal(t, domain.Age76Plus, svc.last.AgeGroup)
	assert.Equal(t, "A1", svc.last.ProductCode)
}

func TestDashboard_AsciiAgeGroup(t *testing.T) {
	svc := &stubDashboardService{rows: sampleRows()}
	e := newTestServer(svc, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/dashboard?age_group=46-55", "viewer-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Age46To55, svc.last.AgeGroup)
}

func TestDashboard_EmptySelection(t *testing.T) {
	e := newTestServer(&stubDashboardService{rows: sampleRows()}, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/dashboard?product_code=ZZ", "viewer-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var d domain.Dashboard
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &d))
	assert.True(t, d.NoData)
	assert.Equal(t, 0, d.RowCount)
}

func TestDashboard_InvalidFilter(t *testing.T) {
	e := newTestServer(&stubDashboardService{rows: sampleRows()}, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/dashboard?bmi_category=Huge", "viewer-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FILTER", decode(t, rec).Error.Code)
}

func TestDashboard_DataLoadError(t *testing.T) {
	svc := &stubDashboardService{err: &domain.DataLoadError{Path: "insurance.csv", Column: "BMI", Reason: "missing required column"}}
	e := newTestServer(svc, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/dashboard", "viewer-token", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "DATA_LOAD_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Message, "missing required column")
}

func TestChart(t *testing.T) {
	e := newTestServer(&stubDashboardService{rows: sampleRows()}, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/dashboard/charts/age_group_counts", "viewer-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	rec = do(e, http.MethodGet, "/api/v1/dashboard/charts/response_heatmap", "viewer-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/dashboard/charts/age_group_counts?product_code=ZZ", "viewer-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_DATA", decode(t, rec).Error.Code)
}

func TestExport(t *testing.T) {
	e := newTestServer(&stubDashboardService{rows: sampleRows()}, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/dashboard/export?response=8", "viewer-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ".xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestReload_AdminOnly(t *testing.T) {
	svc := &stubDashboardService{rows: sampleRows()}
	e := newTestServer(svc, newStubAuth())

	rec := do(e, http.MethodPost, "/api/v1/admin/dataset/reload", "viewer-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, svc.reloads)

	rec = do(e, http.MethodPost, "/api/v1/admin/dataset/reload", "admin-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.reloads)
}

func TestFilterOptionsAndDatasetInfo(t *testing.T) {
	e := newTestServer(&stubDashboardService{rows: sampleRows()}, newStubAuth())

	rec := do(e, http.MethodGet, "/api/v1/dashboard/filters", "viewer-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A1")

	rec = do(e, http.MethodGet, "/api/v1/dashboard/dataset", "viewer-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"row_count":3`)
}
