package http

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/shop-dash/backend/internal/common/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
)

const (
	headerHMAC  = "X-Shopify-Hmac-Sha256"
	headerTopic = "X-Shopify-Topic"
	headerShop  = "X-Shopify-Shop-Domain"
)

// ShopForgetter drops everything stored for a shop.
type ShopForgetter interface {
	DeleteShopSessions(ctx context.Context, shop string) error
}

type Handler struct {
	sessions ShopForgetter
	secret   string
	errs     *commonhttp.ErrorHandler
	log      *logger.Logger
}

func NewHandler(sessions ShopForgetter, apiSecret string, log *logger.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		secret:   apiSecret,
		errs:     commonhttp.NewErrorHandler(log),
		log:      log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/webhooks", h.receive)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	topic := strings.ToLower(r.Header.Get(headerTopic))
	shop := shopify.NormalizeShop(r.Header.Get(headerShop))

	body, err := io.ReadAll(io.LimitReader(r.Body, constants.DefaultMaxRequestSize))
	if err != nil {
		metrics.WebhooksReceivedTotal.WithLabelValues(topic, "unreadable").Inc()
		h.errs.HandleError(w, r, commonerrors.ErrInvalidPayload.WithCause(err))
		return
	}

	if !shopify.VerifyWebhookHMAC(body, r.Header.Get(headerHMAC), h.secret) {
		metrics.WebhooksReceivedTotal.WithLabelValues(topic, "invalid_hmac").Inc()
		h.log.WithFields(r.Context(), logger.Fields{
			"topic":  topic,
			"shop":   shop,
			"action": "webhook_hmac_rejected",
		}).Warn("webhook rejected: bad hmac")
		h.errs.HandleError(w, r, commonerrors.ErrInvalidSignature)
		return
	}

	fields := logger.Fields{"topic": topic, "shop": shop}

	switch topic {
	case shopify.TopicAppUninstalled, shopify.TopicShopRedact:
		if !shopify.IsValidShopDomain(shop) {
			metrics.WebhooksReceivedTotal.WithLabelValues(topic, "invalid_shop").Inc()
			h.errs.HandleError(w, r, commonerrors.ErrInvalidPayload.WithMessage("shop domain header is missing or invalid"))
			return
		}
		if err := h.sessions.DeleteShopSessions(r.Context(), shop); err != nil {
			metrics.WebhooksReceivedTotal.WithLabelValues(topic, "error").Inc()
			h.errs.HandleError(w, r, err)
			return
		}
		fields["action"] = "shop_forgotten"
		h.log.WithFields(r.Context(), fields).Info("shop data removed")
	case shopify.TopicCustomersDataRequest, shopify.TopicCustomersRedact:
		fields["action"] = "privacy_request_acknowledged"
		h.log.WithFields(r.Context(), fields).Info("privacy webhook acknowledged")
	default:
		fields["action"] = "webhook_ignored"
		h.log.WithFields(r.Context(), fields).Debug("webhook topic not handled")
	}

	metrics.WebhooksReceivedTotal.WithLabelValues(topic, "ok").Inc()
	w.WriteHeader(http.StatusOK)
}
