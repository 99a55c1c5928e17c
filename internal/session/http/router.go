package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	commonhttp "github.com/AlibekovAA/shop-dash/backend/internal/common/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
)

type Installer interface {
	BeginInstall(ctx context.Context, shop string) (string, error)
	CompleteInstall(ctx context.Context, query url.Values) (string, error)
}

type Handler struct {
	installer Installer
	errs      *commonhttp.ErrorHandler
	log       *logger.Logger
}

func NewHandler(installer Installer, log *logger.Logger) *Handler {
	return &Handler{
		installer: installer,
		errs:      commonhttp.NewErrorHandler(log),
		log:       log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/auth", h.begin)
	r.Get("/api/auth/callback", h.callback)
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.installer.BeginInstall(r.Context(), r.URL.Query().Get("shop"))
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.installer.CompleteInstall(r.Context(), r.URL.Query())
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}
