package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaWS "github.com/gorilla/websocket"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/shop-dash/backend/internal/common/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/jwtverify"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
	sessiondomain "github.com/AlibekovAA/shop-dash/backend/internal/session/domain"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
	storedomain "github.com/AlibekovAA/shop-dash/backend/internal/store/domain"
)

var ErrTooManyConnections = commonerrors.NewDomainError(
	"LIVE_CAPACITY_REACHED",
	commonerrors.CategoryRateLimit,
	http.StatusServiceUnavailable,
	"too many live dashboard connections",
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (sessiondomain.Session, jwtverify.Claims, error)
	CheckSession(ctx context.Context, shop string) error
}

type SummaryFunc func(ctx context.Context, exec shopify.Executor) (storedomain.Summary, error)

type ExecutorFactory func(shop, accessToken string) shopify.Executor

type Config struct {
	Interval       time.Duration
	MaxConnections int
	// SnapshotTimeout bounds one summary computation.
	SnapshotTimeout time.Duration
}

type Message struct {
	Type  string               `json:"type"`
	Data  *storedomain.Summary `json:"data,omitempty"`
	Error *MessageError        `json:"error,omitempty"`
}

type MessageError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// clientMessage is what the page may send: a fresh session token before
// the current one expires.
type clientMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Handler pushes a fresh dashboard summary to each connected admin on a
// fixed interval. The session token travels in the query string because
// browsers cannot set headers on WebSocket upgrades.
type Handler struct {
	auth      Authenticator
	summary   SummaryFunc
	executors ExecutorFactory
	cfg       Config
	upgrader  gorillaWS.Upgrader
	errs      *commonhttp.ErrorHandler
	log       *logger.Logger
	now       func() time.Time

	active atomic.Int64
}

func NewHandler(auth Authenticator, summary SummaryFunc, executors ExecutorFactory, cfg Config, log *logger.Logger) *Handler {
	if cfg.Interval <= 0 {
		cfg.Interval = constants.DefaultLiveInterval
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = constants.DefaultLiveMaxConnections
	}
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = constants.DefaultAdminRequestTimeout
	}
	return &Handler{
		auth:      auth,
		summary:   summary,
		executors: executors,
		cfg:       cfg,
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:  constants.WebSocketReadBufferSize,
			WriteBufferSize: constants.WebSocketWriteBufferSize,
			CheckOrigin:     allowedOrigin,
		},
		errs: commonhttp.NewErrorHandler(log),
		log:  log,
		now:  time.Now,
	}
}

// allowedOrigin accepts same-host pages and the Shopify admin frame.
func allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	if origin == "http://"+host || origin == "https://"+host || origin == "https://admin.shopify.com" {
		return true
	}
	return strings.HasPrefix(origin, "https://") && shopify.IsValidShopDomain(strings.TrimPrefix(origin, "https://"))
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/dashboard/live", h.serve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if t, ok := jwtverify.BearerToken(r); ok {
			token = t
		}
	}
	if token == "" {
		h.errs.HandleError(w, r, commonerrors.ErrMissingSession)
		return
	}

	session, claims, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if h.active.Add(1) > int64(h.cfg.MaxConnections) {
		h.active.Add(-1)
		metrics.LiveConnectionsRejected.Inc()
		h.errs.HandleError(w, r, ErrTooManyConnections)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.active.Add(-1)
		h.log.WithFields(r.Context(), logger.Fields{
			"shop":   session.Shop,
			"action": "live_upgrade_failed",
		}).Warnf("websocket upgrade failed: %v", err)
		return
	}
	metrics.LiveConnectionsActive.Inc()

	fields := logger.Fields{"shop": session.Shop, "subject": claims.Subject}
	h.log.WithFields(r.Context(), withAction(fields, "live_connected")).Info("live dashboard connected")

	// The request context ends when the handler returns, so the feed gets
	// its own lifetime tied to the connection.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	f := &feed{
		conn:    conn,
		exec:    h.executors(session.Shop, session.AccessToken),
		shop:    session.Shop,
		handler: h,
		cancel:  cancel,
	}
	f.setExpiry(claims.ExpiresAt)
	go func() {
		defer func() {
			h.active.Add(-1)
			metrics.LiveConnectionsActive.Dec()
			h.log.WithFields(ctx, withAction(fields, "live_disconnected")).Info("live dashboard disconnected")
		}()
		f.run(ctx)
	}()
}

func withAction(fields logger.Fields, action string) logger.Fields {
	out := make(logger.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["action"] = action
	return out
}

type feed struct {
	conn    *gorillaWS.Conn
	exec    shopify.Executor
	shop    string
	handler *Handler
	cancel  context.CancelFunc

	// expiresAt is the session token's exp in unix nanoseconds, 0 if unset.
	expiresAt atomic.Int64
}

func (f *feed) run(ctx context.Context) {
	go f.readPump(ctx)
	f.writePump(ctx)
}

func (f *feed) setExpiry(t time.Time) {
	if t.IsZero() {
		f.expiresAt.Store(0)
		return
	}
	f.expiresAt.Store(t.UnixNano())
}

// readPump services control frames and token refreshes; a read error
// means the peer left.
func (f *feed) readPump(ctx context.Context) {
	defer f.cancel()

	f.conn.SetReadLimit(constants.WebSocketMaxMessageSize)
	_ = f.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPongWait))
	f.conn.SetPongHandler(func(string) error {
		return f.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPongWait))
	})

	for {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			return
		}
		f.refresh(ctx, data)
	}
}

// refresh extends the feed when the page sends a newer token for the
// same shop. Anything else is ignored.
func (f *feed) refresh(ctx context.Context, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "token" || msg.Token == "" {
		return
	}
	session, claims, err := f.handler.auth.Authenticate(ctx, msg.Token)
	if err == nil && session.Shop != f.shop {
		err = commonerrors.ErrInvalidTokenClaims.WithMessage("token belongs to another shop")
	}
	if err != nil {
		f.handler.log.WithFields(ctx, logger.Fields{
			"shop":   f.shop,
			"action": "live_token_rejected",
		}).Warnf("token refresh rejected: %v", err)
		return
	}
	f.setExpiry(claims.ExpiresAt)
}

func (f *feed) writePump(ctx context.Context) {
	snapshots := time.NewTicker(f.handler.cfg.Interval)
	pings := time.NewTicker(constants.WebSocketPingPeriod)
	defer func() {
		snapshots.Stop()
		pings.Stop()
		_ = f.conn.Close()
	}()

	if !f.push(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			f.close(gorillaWS.CloseNormalClosure, "")
			return
		case <-snapshots.C:
			if !f.authorized(ctx) || !f.push(ctx) {
				return
			}
		case <-pings.C:
			_ = f.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteWait))
			if err := f.conn.WriteMessage(gorillaWS.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// authorized re-checks the session before a snapshot. An expired token or
// a session removed by uninstall ends the feed with a policy violation.
func (f *feed) authorized(ctx context.Context) bool {
	if exp := f.expiresAt.Load(); exp != 0 && f.handler.now().UnixNano() > exp {
		f.close(gorillaWS.ClosePolicyViolation, "session token expired")
		return false
	}

	err := f.handler.auth.CheckSession(ctx, f.shop)
	switch {
	case err == nil:
		return true
	case ctx.Err() != nil:
		return false
	case commonerrors.IsCategory(err, commonerrors.CategoryUnauthorized):
		f.close(gorillaWS.ClosePolicyViolation, "session revoked")
	default:
		f.handler.log.WithFields(ctx, logger.Fields{
			"shop":   f.shop,
			"action": "live_session_check_failed",
		}).Warnf("session check failed: %v", err)
		f.close(gorillaWS.CloseTryAgainLater, "session check failed")
	}
	return false
}

func (f *feed) close(code int, reason string) {
	_ = f.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteWait))
	_ = f.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(code, reason))
}

// push computes one summary and writes it. It reports whether the
// connection is still usable.
func (f *feed) push(ctx context.Context) bool {
	snapCtx, cancel := context.WithTimeout(ctx, f.handler.cfg.SnapshotTimeout)
	sum, err := f.handler.summary(snapCtx, f.exec)
	cancel()

	msg := Message{Type: "summary"}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		metrics.LiveSnapshotsSent.WithLabelValues("error").Inc()
		msg = Message{Type: "error", Error: describe(err)}
	} else {
		metrics.LiveSnapshotsSent.WithLabelValues("ok").Inc()
		msg.Data = &sum
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	_ = f.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteWait))
	return f.conn.WriteMessage(gorillaWS.TextMessage, payload) == nil
}

func describe(err error) *MessageError {
	if de, ok := commonerrors.AsDomainError(err); ok {
		switch de.Category() {
		case commonerrors.CategoryUpstream, commonerrors.CategoryInternal:
			return &MessageError{Code: de.Code(), Message: "dashboard data is temporarily unavailable"}
		}
		return &MessageError{Code: de.Code(), Message: de.Message()}
	}
	return &MessageError{Code: commonhttp.CodeInternal, Message: "dashboard data is temporarily unavailable"}
}
