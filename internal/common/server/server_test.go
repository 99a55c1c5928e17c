package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRun_RunsHooksOnShutdown(t *testing.T) {
	log, _ := logger.New("", "test", "error")
	srv := &http.Server{Addr: freeAddr(t), Handler: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	hookCalls := 0
	hooks := []ShutdownHook{
		func(context.Context) error { hookCalls++; return nil },
		func(context.Context) error { hookCalls++; return errors.New("ignored") },
	}

	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, log, "test", time.Second, 100*time.Millisecond, hooks) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, 2, hookCalls)
}

func TestRun_ReportsListenFailure(t *testing.T) {
	log, _ := logger.New("", "test", "error")
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	srv := &http.Server{Addr: l.Addr().String(), Handler: http.NotFoundHandler()}
	err = Run(context.Background(), srv, log, "test", time.Second, time.Second, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start test service")
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig("3000")
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}
