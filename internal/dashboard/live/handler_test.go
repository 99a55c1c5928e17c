package live

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/jwtverify"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	sessiondomain "github.com/AlibekovAA/shop-dash/backend/internal/session/domain"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
	storedomain "github.com/AlibekovAA/shop-dash/backend/internal/store/domain"
)

type mockAuth struct {
	authenticateFunc func(ctx context.Context, token string) (sessiondomain.Session, jwtverify.Claims, error)
	checkSessionFunc func(ctx context.Context, shop string) error
}

func (m *mockAuth) Authenticate(ctx context.Context, token string) (sessiondomain.Session, jwtverify.Claims, error) {
	return m.authenticateFunc(ctx, token)
}

func (m *mockAuth) CheckSession(ctx context.Context, shop string) error {
	if m.checkSessionFunc == nil {
		return nil
	}
	return m.checkSessionFunc(ctx, shop)
}

func goodToken(_ context.Context, token string) (sessiondomain.Session, jwtverify.Claims, error) {
	if token != "good" {
		return sessiondomain.Session{}, jwtverify.Claims{}, commonerrors.ErrInvalidToken
	}
	return sessiondomain.Session{Shop: "demo.myshopify.com", AccessToken: "shpat_x"},
		jwtverify.Claims{Shop: "demo.myshopify.com", Subject: "42"}, nil
}

func newServer(t *testing.T, summary SummaryFunc, cfg Config) *httptest.Server {
	t.Helper()
	return newServerWithAuth(t, &mockAuth{authenticateFunc: goodToken}, summary, cfg)
}

func newServerWithAuth(t *testing.T, auth Authenticator, summary SummaryFunc, cfg Config) *httptest.Server {
	t.Helper()
	log, _ := logger.New("", "test", "error")
	h := NewHandler(auth, summary, func(string, string) shopify.Executor { return nil }, cfg, log)

	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func okSummary(context.Context, shopify.Executor) (storedomain.Summary, error) {
	return storedomain.Summary{ProductsCount: 1}, nil
}

// readUntilClosed drains summaries and returns the error that ended the stream.
func readUntilClosed(t *testing.T, conn *gorillaWS.Conn) (int, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	summaries := 0
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return summaries, err
		}
		if msg.Type == "summary" {
			summaries++
		}
	}
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/dashboard/live?token=" + token
}

func TestLive_PushesSummaryOnConnect(t *testing.T) {
	generated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := newServer(t, func(context.Context, shopify.Executor) (storedomain.Summary, error) {
		return storedomain.Summary{ProductsCount: 7, OrdersCount: 3, GeneratedAt: generated}, nil
	}, Config{Interval: time.Hour})

	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "summary", msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, 7, msg.Data.ProductsCount)
	assert.Equal(t, 3, msg.Data.OrdersCount)
	assert.True(t, generated.Equal(msg.Data.GeneratedAt))
	assert.Nil(t, msg.Error)
}

func TestLive_PushesAgainOnInterval(t *testing.T) {
	var calls atomic.Int64
	srv := newServer(t, func(context.Context, shopify.Executor) (storedomain.Summary, error) {
		return storedomain.Summary{ProductsCount: int(calls.Add(1))}, nil
	}, Config{Interval: 20 * time.Millisecond})

	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for i := 1; i <= 2; i++ {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "summary", msg.Type)
		require.NotNil(t, msg.Data)
		assert.Equal(t, i, msg.Data.ProductsCount)
	}
}

func TestLive_UpstreamFailureIsReportedWithoutDetail(t *testing.T) {
	srv := newServer(t, func(context.Context, shopify.Executor) (storedomain.Summary, error) {
		return storedomain.Summary{}, commonerrors.ErrUpstream.WithCause(errors.New("Access denied for ordersCount"))
	}, Config{Interval: time.Hour})

	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "error", msg.Type)
	assert.Nil(t, msg.Data)
	require.NotNil(t, msg.Error)
	assert.Equal(t, "UPSTREAM_ERROR", msg.Error.Code)
	assert.NotContains(t, msg.Error.Message, "Access denied")
}

func TestLive_RejectsBeforeUpgrade(t *testing.T) {
	srv := newServer(t, func(context.Context, shopify.Executor) (storedomain.Summary, error) {
		return storedomain.Summary{}, nil
	}, Config{Interval: time.Hour})

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid token", "bad", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, tt.token), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestLive_ConnectionLimit(t *testing.T) {
	srv := newServer(t, func(context.Context, shopify.Executor) (storedomain.Summary, error) {
		return storedomain.Summary{}, nil
	}, Config{Interval: time.Hour, MaxConnections: 1})

	first, _, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer first.Close()

	_, resp, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLive_ClosesWhenSessionRevoked(t *testing.T) {
	var revoked atomic.Bool
	auth := &mockAuth{
		authenticateFunc: goodToken,
		checkSessionFunc: func(_ context.Context, shop string) error {
			assert.Equal(t, "demo.myshopify.com", shop)
			if revoked.Load() {
				return commonerrors.ErrMissingSession
			}
			return nil
		},
	}
	srv := newServerWithAuth(t, auth, okSummary, Config{Interval: 20 * time.Millisecond})

	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var first Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "summary", first.Type)

	revoked.Store(true)
	_, err = readUntilClosed(t, conn)
	assert.True(t, gorillaWS.IsCloseError(err, gorillaWS.ClosePolicyViolation), "got %v", err)
}

func TestLive_ClosesWhenTokenExpires(t *testing.T) {
	auth := &mockAuth{authenticateFunc: func(ctx context.Context, token string) (sessiondomain.Session, jwtverify.Claims, error) {
		session, claims, err := goodToken(ctx, token)
		claims.ExpiresAt = time.Now().Add(60 * time.Millisecond)
		return session, claims, err
	}}
	srv := newServerWithAuth(t, auth, okSummary, Config{Interval: 20 * time.Millisecond})

	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	summaries, err := readUntilClosed(t, conn)
	assert.GreaterOrEqual(t, summaries, 1)
	assert.True(t, gorillaWS.IsCloseError(err, gorillaWS.ClosePolicyViolation), "got %v", err)
}

func TestLive_SessionCheckFailureAsksClientToRetry(t *testing.T) {
	auth := &mockAuth{
		authenticateFunc: goodToken,
		checkSessionFunc: func(context.Context, string) error {
			return commonerrors.ErrDatabaseError.WithCause(errors.New("pool closed"))
		},
	}
	srv := newServerWithAuth(t, auth, okSummary, Config{Interval: 20 * time.Millisecond})

	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, err = readUntilClosed(t, conn)
	assert.True(t, gorillaWS.IsCloseError(err, gorillaWS.CloseTryAgainLater), "got %v", err)
}

func TestLive_TokenRefreshKeepsFeedOpen(t *testing.T) {
	auth := &mockAuth{authenticateFunc: func(ctx context.Context, token string) (sessiondomain.Session, jwtverify.Claims, error) {
		switch token {
		case "good":
			session, claims, err := goodToken(ctx, token)
			claims.ExpiresAt = time.Now().Add(100 * time.Millisecond)
			return session, claims, err
		case "fresh":
			return sessiondomain.Session{Shop: "demo.myshopify.com"},
				jwtverify.Claims{Shop: "demo.myshopify.com", ExpiresAt: time.Now().Add(time.Hour)}, nil
		}
		return sessiondomain.Session{}, jwtverify.Claims{}, commonerrors.ErrInvalidToken
	}}
	srv := newServerWithAuth(t, auth, okSummary, Config{Interval: 20 * time.Millisecond})

	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "token", Token: "fresh"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "summary", msg.Type)
	}
}

func TestAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://app.example.com", true},
		{"https://admin.shopify.com", true},
		{"https://demo.myshopify.com", true},
		{"https://evil.example.org", false},
		{"http://demo.myshopify.com", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "https://app.example.com/api/dashboard/live", nil)
		r.Host = "app.example.com"
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, allowedOrigin(r), tt.origin)
	}
}
