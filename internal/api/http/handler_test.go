package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/security"
	"gearshare-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

type mockEquipment struct{ mock.Mock }

func (m *mockEquipment) result(args mock.Arguments) (*service.Result[*domain.Equipment], error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Result[*domain.Equipment]), args.Error(1)
}

func (m *mockEquipment) Create(ctx context.Context, e *domain.Equipment) (*service.Result[*domain.Equipment], error) {
	return m.result(m.Called(ctx, e))
}

func (m *mockEquipment) Update(ctx context.Context, id string, patch domain.EquipmentPatch) (*service.Result[*domain.Equipment], error) {
	return m.result(m.Called(ctx, id, patch))
}

func (m *mockEquipment) Delete(ctx context.Context, id string) (*service.Result[*domain.Equipment], error) {
	return m.result(m.Called(ctx, id))
}

func (m *mockEquipment) Resync(ctx context.Context, id string) (*service.Result[*domain.Equipment], error) {
	return m.result(m.Called(ctx, id))
}

func (m *mockEquipment) Get(ctx context.Context, id string) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *mockEquipment) List(ctx context.Context) ([]domain.Equipment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

type mockActivity struct{ mock.Mock }

func (m *mockActivity) Query(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLogEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActivityLogEntry), args.Error(1)
}

type panicDashboard struct{}

func (panicDashboard) Summary(ctx context.Context) (*domain.Dashboard, error) {
	panic("boom")
}

type routerFixture struct {
	router    http.Handler
	tokens    security.TokenManager
	auth      *mockAuth
	equipment *mockEquipment
	activity  *mockActivity
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		tokens:    security.NewTokenManager("test-secret", time.Hour),
		auth:      &mockAuth{},
		equipment: &mockEquipment{},
		activity:  &mockActivity{},
	}
	h := NewHandler(Services{
		Auth:      f.auth,
		Equipment: f.equipment,
		Activity:  f.activity,
		Dashboard: panicDashboard{},
	})
	f.router = NewRouter(h, f.tokens, config.ServerConfig{CorsAllowedOrigins: []string{"http://localhost:5173"}})
	return f
}

func (f *routerFixture) do(t *testing.T, method, path string, body any, authed bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, _, err := f.tokens.GenerateAccessToken("admin@gearshare.test")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)
	rec, body := f.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/equipment", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])

	req := httptest.NewRequest(http.MethodGet, "/api/equipment", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.equipment.AssertNotCalled(t, "List", mock.Anything)
}

func TestRouter_Login(t *testing.T) {
	f := newRouterFixture(t)
	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.auth.On("Login", mock.Anything, "admin@gearshare.test", "secret").
		Return(&domain.Session{Token: "tok", ExpiresAt: exp, Email: "admin@gearshare.test"}, nil)
	f.auth.On("Login", mock.Anything, "admin@gearshare.test", "wrong").
		Return(nil, security.ErrInvalidCredentials)

	rec, body := f.do(t, http.MethodPost, "/api/auth/login", domain.LoginRequest{Email: "admin@gearshare.test", Password: "secret"}, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", body["token"])

	rec, body = f.do(t, http.MethodPost, "/api/auth/login", domain.LoginRequest{Email: "admin@gearshare.test", Password: "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestRouter_CreateEquipment(t *testing.T) {
	f := newRouterFixture(t)
	f.equipment.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.Equipment) bool {
		return e.Name == "Camera X" && e.Price == 50 && e.Quantity == 2
	})).Return(&service.Result[*domain.Equipment]{
		Entity:   &domain.Equipment{ID: "grp-1", Name: "Camera X", Price: 50, Quantity: 2},
		Refs:     map[string]string{"booqableGroupId": "grp-1"},
		Warnings: []string{"records: create equipment mirror: boom"},
	}, nil)

	rec, body := f.do(t, http.MethodPost, "/api/equipment", map[string]any{"name": "Camera X", "price": 50, "quantity": 2}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "succeeded_with_warnings", body["outcome"])
	assert.Len(t, body["warnings"], 1)
	assert.Equal(t, "grp-1", body["refs"].(map[string]any)["booqableGroupId"])
	assert.Equal(t, "grp-1", body["data"].(map[string]any)["id"])
}

func TestRouter_CreateEquipment_Errors(t *testing.T) {
	f := newRouterFixture(t)
	f.equipment.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.Equipment) bool { return e.Name == "" })).
		Return(nil, domain.ValidationErrors{domain.NewValidationError("name", "is required")})
	f.equipment.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.Equipment) bool { return e.Name == "Fail" })).
		Return(nil, &domain.BackendWriteError{Backend: "booking", Operation: "create product group", Err: errors.New("503")})

	rec, body := f.do(t, http.MethodPost, "/api/equipment", map[string]any{"price": 5, "quantity": 1}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, body["fields"], 1)

	rec, _ = f.do(t, http.MethodPost, "/api/equipment", map[string]any{"name": "Fail", "quantity": 1}, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, body = f.do(t, http.MethodPost, "/api/equipment", map[string]any{"name": "X", "bogus": true}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid JSON body")
}

func TestRouter_GetEquipment_NotFound(t *testing.T) {
	f := newRouterFixture(t)
	f.equipment.On("Get", mock.Anything, "missing").
		Return(nil, &domain.BackendReadError{Backend: "booking", Operation: "get product group", Err: domain.ErrNotFound})

	rec, body := f.do(t, http.MethodGet, "/api/equipment/missing", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "resource not found", body["error"])
}

func TestRouter_UpdateEquipment_PassesPatch(t *testing.T) {
	f := newRouterFixture(t)
	f.equipment.On("Update", mock.Anything, "grp-1", mock.MatchedBy(func(p domain.EquipmentPatch) bool {
		return p.Price != nil && *p.Price == 60 && p.Name == nil
	})).Return(&service.Result[*domain.Equipment]{Entity: &domain.Equipment{ID: "grp-1", Price: 60}}, nil)

	rec, body := f.do(t, http.MethodPut, "/api/equipment/grp-1", map[string]any{"price": 60}, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "succeeded", body["outcome"])
	assert.Equal(t, []any{}, body["warnings"])
	f.equipment.AssertExpectations(t)
}

func TestRouter_QueryActivity(t *testing.T) {
	f := newRouterFixture(t)
	f.activity.On("Query", mock.Anything, domain.ActivityFilter{
		DateRange:  domain.DateRangeWeek,
		ActionType: domain.ActionCreate,
		Collection: "equipment",
		Limit:      5,
	}).Return([]domain.ActivityLogEntry{{ID: "log-1", Collection: "equipment"}}, nil)

	rec, body := f.do(t, http.MethodGet, "/api/activity?dateRange=week&actionType=create&collection=equipment&limit=5", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, _ = f.do(t, http.MethodGet, "/api/activity?dateRange=year", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/activity?limit=abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RecoversPanics(t *testing.T) {
	f := newRouterFixture(t)
	rec, body := f.do(t, http.MethodGet, "/api/dashboard", nil, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body["error"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t)
	rec, body := f.do(t, http.MethodGet, "/api/nope", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/equipment", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rec.Code, 300)
}
