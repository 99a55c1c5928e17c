package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/shop-dash/backend/internal/common/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
	"github.com/AlibekovAA/shop-dash/backend/internal/user/domain"
)

type Registry interface {
	Register(ctx context.Context, reg domain.Registration) (domain.RegistrationResult, error)
	List(ctx context.Context) ([]domain.RegisteredUser, error)
	Get(ctx context.Context, id domain.ID) (domain.RegisteredUser, error)
	Delete(ctx context.Context, id domain.ID) error
}

type ProxyConfig struct {
	APISecret        string
	RequireSignature bool
}

type Handler struct {
	registry Registry
	proxy    ProxyConfig
	errs     *commonhttp.ErrorHandler
	log      *logger.Logger
}

func NewHandler(registry Registry, proxy ProxyConfig, log *logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		proxy:    proxy,
		errs:     commonhttp.NewErrorHandler(log),
		log:      log,
	}
}

// PublicRoutes registers the storefront app-proxy endpoints.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.verifyProxySignature)
		r.Get("/api/app-proxy", h.probe)
		r.Post("/api/app-proxy", h.register)
	})
}

// Routes registers the session-protected registry endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/users", h.list)
	r.Get("/api/users/{id}", h.get)
	r.Delete("/api/users/{id}", h.delete)
}

func (h *Handler) verifyProxySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("signature") || h.proxy.RequireSignature {
			if !shopify.VerifyAppProxySignature(q, h.proxy.APISecret) {
				h.log.WithFields(r.Context(), logger.Fields{
					"shop":   q.Get("shop"),
					"action": "app_proxy_signature_rejected",
				}).Warn("app proxy signature rejected")
				h.errs.HandleError(w, r, commonerrors.ErrInvalidSignature)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) probe(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteData(w, http.StatusOK, map[string]any{
		"message": "App proxy is working",
		"shop":    r.URL.Query().Get("shop"),
	})
}

type registrationRequest struct {
	domain.Registration
	Terms *bool `json:"terms,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errs.HandleError(w, r, commonerrors.ErrInvalidPayload.WithCause(err))
		return
	}
	reg := req.Registration
	if !reg.TermsAccepted && req.Terms != nil {
		reg.TermsAccepted = *req.Terms
	}

	res, err := h.registry.Register(r.Context(), reg)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{
		"message":      "User registered successfully",
		"userId":       res.ID,
		"email":        res.Email,
		"registeredAt": res.RegisteredAt,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.registry.List(r.Context())
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.registry.Get(r.Context(), domain.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "id"))
	if err := h.registry.Delete(r.Context(), id); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{
		"message":   "User deleted successfully",
		"deletedId": id,
	})
}
