package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
	"github.com/AlibekovAA/shop-dash/backend/internal/user/domain"
)

const proxySecret = "proxy-secret"

type mockRegistry struct {
	registerFunc func(ctx context.Context, reg domain.Registration) (domain.RegistrationResult, error)
	listFunc     func(ctx context.Context) ([]domain.RegisteredUser, error)
	getFunc      func(ctx context.Context, id domain.ID) (domain.RegisteredUser, error)
	deleteFunc   func(ctx context.Context, id domain.ID) error
}

func (m *mockRegistry) Register(ctx context.Context, reg domain.Registration) (domain.RegistrationResult, error) {
	return m.registerFunc(ctx, reg)
}

func (m *mockRegistry) List(ctx context.Context) ([]domain.RegisteredUser, error) {
	return m.listFunc(ctx)
}

func (m *mockRegistry) Get(ctx context.Context, id domain.ID) (domain.RegisteredUser, error) {
	return m.getFunc(ctx, id)
}

func (m *mockRegistry) Delete(ctx context.Context, id domain.ID) error {
	return m.deleteFunc(ctx, id)
}

func newRouter(reg Registry, requireSig bool) http.Handler {
	log, _ := logger.New("", "test", "error")
	h := NewHandler(reg, ProxyConfig{APISecret: proxySecret, RequireSignature: requireSig}, log)
	r := chi.NewRouter()
	h.PublicRoutes(r)
	h.Routes(r)
	return r
}

func signedProxyQuery() string {
	q := url.Values{}
	q.Set("shop", "demo.myshopify.com")
	q.Set("path_prefix", "/apps/register")
	q.Set("timestamp", "1740830400")
	q.Set("signature", shopify.SignAppProxyQuery(q, proxySecret))
	return q.Encode()
}

func TestRegister_AcceptsTermsAlias(t *testing.T) {
	var got domain.Registration
	reg := &mockRegistry{registerFunc: func(_ context.Context, r domain.Registration) (domain.RegistrationResult, error) {
		got = r
		return domain.RegistrationResult{ID: "65f0c0ffee0000000000abcd", Email: "a@b.co", RegisteredAt: time.Unix(0, 0).UTC()}, nil
	}}

	body := `{"fullName":"A","email":"a@b.co","phone":"1","password":"secret1","confirmPassword":"secret1","terms":true}`
	rec := httptest.NewRecorder()
	newRouter(reg, false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/app-proxy", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.TermsAccepted)
	assert.Contains(t, rec.Body.String(), `"userId":"65f0c0ffee0000000000abcd"`)
	assert.NotContains(t, rec.Body.String(), "secret1")
}

func TestRegister_ConflictIs409(t *testing.T) {
	reg := &mockRegistry{registerFunc: func(context.Context, domain.Registration) (domain.RegistrationResult, error) {
		return domain.RegistrationResult{}, commonerrors.NewConflictError("EMAIL_ALREADY_REGISTERED", "a user with this email is already registered")
	}}

	rec := httptest.NewRecorder()
	newRouter(reg, false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/app-proxy", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already registered")
}

func TestAppProxy_Signature(t *testing.T) {
	reg := &mockRegistry{}

	rec := httptest.NewRecorder()
	newRouter(reg, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/app-proxy?shop=x&signature=deadbeef", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(reg, true).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/app-proxy", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(reg, true).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/app-proxy?"+signedProxyQuery(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "App proxy is working")
}

func TestUsersRoutes(t *testing.T) {
	reg := &mockRegistry{
		listFunc: func(context.Context) ([]domain.RegisteredUser, error) {
			return []domain.RegisteredUser{{ID: "1", Email: "a@b.co", PasswordHash: "$2a$hash"}}, nil
		},
		getFunc: func(_ context.Context, id domain.ID) (domain.RegisteredUser, error) {
			return domain.RegisteredUser{}, commonerrors.NewNotFoundError("USER_NOT_FOUND", "user not found")
		},
		deleteFunc: func(_ context.Context, id domain.ID) error {
			assert.Equal(t, domain.ID("65f0c0ffee0000000000abcd"), id)
			return nil
		},
	}
	r := newRouter(reg, false)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.NotContains(t, rec.Body.String(), "$2a$hash")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/65f0c0ffee0000000000ffff", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/users/65f0c0ffee0000000000abcd", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deletedId":"65f0c0ffee0000000000abcd"`)
}
