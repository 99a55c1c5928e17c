package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
)

const secret = "webhook-secret"

type forgetterFunc func(ctx context.Context, shop string) error

func (f forgetterFunc) DeleteShopSessions(ctx context.Context, shop string) error { return f(ctx, shop) }

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func send(h http.Handler, topic, shop, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks", strings.NewReader(body))
	req.Header.Set("X-Shopify-Topic", topic)
	req.Header.Set("X-Shopify-Shop-Domain", shop)
	req.Header.Set("X-Shopify-Hmac-Sha256", signature)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newRouter(f forgetterFunc) http.Handler {
	log, _ := logger.New("", "test", "error")
	r := chi.NewRouter()
	NewHandler(f, secret, log).Routes(r)
	return r
}

func TestWebhook_UninstallForgetsShop(t *testing.T) {
	var forgotten []string
	h := newRouter(func(_ context.Context, shop string) error {
		forgotten = append(forgotten, shop)
		return nil
	})

	body := `{"id":1}`
	rec := send(h, "app/uninstalled", "demo.myshopify.com", body, sign(body))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(h, "shop/redact", "demo.myshopify.com", body, sign(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"demo.myshopify.com", "demo.myshopify.com"}, forgotten)
}

func TestWebhook_BadHMACIsRejected(t *testing.T) {
	called := false
	h := newRouter(func(context.Context, string) error {
		called = true
		return nil
	})

	rec := send(h, "app/uninstalled", "demo.myshopify.com", `{"id":1}`, sign(`{"id":2}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestWebhook_PrivacyTopicsAreAcknowledged(t *testing.T) {
	h := newRouter(func(context.Context, string) error {
		t.Fatal("privacy topics must not delete sessions")
		return nil
	})

	body := `{"customer":{"id":7}}`
	assert.Equal(t, http.StatusOK, send(h, "customers/data_request", "demo.myshopify.com", body, sign(body)).Code)
	assert.Equal(t, http.StatusOK, send(h, "customers/redact", "demo.myshopify.com", body, sign(body)).Code)
}

func TestWebhook_StoreFailureIs500(t *testing.T) {
	h := newRouter(func(context.Context, string) error { return errors.New("pool closed") })

	body := `{}`
	rec := send(h, "app/uninstalled", "demo.myshopify.com", body, sign(body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
