package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
)

func testLogger() *logger.Logger {
	log, _ := logger.New("", "test", "error")
	return log
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestErrorHandler_DomainErrorKeepsMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users/abc", nil)
	req = req.WithContext(WithTraceID(req.Context(), "trace-1234"))
	rec := httptest.NewRecorder()

	NewErrorHandler(testLogger()).HandleError(rec, req, commonerrors.NewNotFoundError("USER_NOT_FOUND", "user not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)
	assert.Equal(t, "user not found", env.Error.Message)
	assert.Equal(t, "trace-1234", env.TraceID)
}

func TestErrorHandler_UpstreamCauseIsNotLeaked(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/orders/count", nil)
	rec := httptest.NewRecorder()

	err := commonerrors.ErrUpstream.WithCause(errors.New("graphql: Access denied for ordersCount field"))
	NewErrorHandler(testLogger()).HandleError(rec, req, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "Access denied")
	assert.Contains(t, body, "UPSTREAM_ERROR")
}

func TestErrorHandler_UnknownErrorIsGeneric(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/store/info", nil)
	rec := httptest.NewRecorder()

	NewErrorHandler(testLogger()).HandleError(rec, req, errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeInternal, env.Error.Code)
	assert.Equal(t, "internal server error", env.Error.Message)
}

func TestWriteData_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusOK, map[string]int{"count": 3})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"count":3}}`, rec.Body.String())
}

type intakeSample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Confirm  string `json:"confirmPassword" validate:"eqfield=Password"`
}

func TestValidateStruct_ReportsFirstFieldByJSONName(t *testing.T) {
	err := ValidateStruct(intakeSample{Email: "nope", Password: "secret1", Confirm: "secret1"})
	require.Error(t, err)

	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus())
	assert.Equal(t, "email must be a valid email address", de.Message())

	err = ValidateStruct(intakeSample{Email: "a@b.co", Password: "secret1", Confirm: "secret2"})
	de, ok = commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "confirmPassword does not match", de.Message())

	assert.NoError(t, ValidateStruct(intakeSample{Email: "a@b.co", Password: "secret1", Confirm: "secret1"}))
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware("test", func(*http.Request) string { return "shop-a" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/count", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.True(t, rl.Allow("shop-b"))
}

func TestStrictRateLimiter_IntakeIsTighterThanGeneral(t *testing.T) {
	srl := NewStrictRateLimiter()
	h := srl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	blocked := false
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/app-proxy", strings.NewReader("{}"))
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked = true
			break
		}
	}
	assert.True(t, blocked)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTraceIDMiddleware(t *testing.T) {
	var seen string
	h := TraceIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "client-supplied-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied-1", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "bad id with spaces")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id with spaces", seen)
	assert.Equal(t, seen, rec.Header().Get("X-Trace-ID"))
}

func TestEmbeddedCSP_OnlyTrustsValidShops(t *testing.T) {
	valid := func(s string) bool { return strings.HasSuffix(s, ".myshopify.com") }
	h := EmbeddedCSPMiddleware(valid)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?shop=demo.myshopify.com", nil))
	assert.Equal(t, "frame-ancestors https://demo.myshopify.com https://admin.shopify.com;", rec.Header().Get("Content-Security-Policy"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?shop=evil.example.com", nil))
	assert.Equal(t, "frame-ancestors https://admin.shopify.com;", rec.Header().Get("Content-Security-Policy"))
}

func TestHealthHandler_ReportsFailingDependency(t *testing.T) {
	h := HealthHandler(testLogger(), map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"mongo":    func(context.Context) error { return errors.New("no reachable servers") },
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mongo":"down"`)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/all", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
