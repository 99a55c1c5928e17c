package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/shop-dash/backend/internal/common/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	sessionhttp "github.com/AlibekovAA/shop-dash/backend/internal/session/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
	"github.com/AlibekovAA/shop-dash/backend/internal/store/domain"
)

const maxSampleProducts = 25

var ErrInvalidSampleCount = commonerrors.NewValidationError(
	"INVALID_SAMPLE_COUNT",
	"count must be between 1 and 25",
)

type Service interface {
	ShopInfo(ctx context.Context, exec shopify.Executor) (domain.ShopInfo, error)
	ProductsCount(ctx context.Context, exec shopify.Executor) (int, error)
	CollectionsCount(ctx context.Context, exec shopify.Executor) (int, error)
	OrdersCount(ctx context.Context, exec shopify.Executor) (int, error)
	FulfilledOrdersCount(ctx context.Context, exec shopify.Executor) (int, error)
	RemainingOrdersCount(ctx context.Context, exec shopify.Executor) (int, error)
	RecentOrders(ctx context.Context, exec shopify.Executor) ([]domain.Order, error)
	ListProducts(ctx context.Context, exec shopify.Executor) ([]domain.Product, error)
	CreateSampleProducts(ctx context.Context, exec shopify.Executor, count int) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, exec shopify.Executor, upd domain.ProductUpdate) (domain.Product, error)
	DeleteProduct(ctx context.Context, exec shopify.Executor, id string) (string, error)
	Summary(ctx context.Context, exec shopify.Executor) (domain.Summary, error)
}

// ExecutorFactory binds a GraphQL executor to a shop's offline token.
type ExecutorFactory func(shop, accessToken string) shopify.Executor

type Handler struct {
	store     Service
	executors ExecutorFactory
	errs      *commonhttp.ErrorHandler
	log       *logger.Logger
}

func NewHandler(store Service, executors ExecutorFactory, log *logger.Logger) *Handler {
	return &Handler{
		store:     store,
		executors: executors,
		errs:      commonhttp.NewErrorHandler(log),
		log:       log,
	}
}

// Routes registers the session-protected store endpoints. The caller mounts
// them behind RequireSession.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/store/info", h.withExecutor(h.shopInfo))
	r.Get("/api/products/count", h.count(h.store.ProductsCount))
	r.Get("/api/products/all", h.withExecutor(h.listProducts))
	r.Post("/api/products", h.withExecutor(h.createProducts))
	r.Put("/api/product/update", h.withExecutor(h.updateProduct))
	r.Delete("/api/product/delete", h.withExecutor(h.deleteProduct))
	r.Get("/api/collections/count", h.count(h.store.CollectionsCount))
	r.Get("/api/orders/count", h.count(h.store.OrdersCount))
	r.Get("/api/orders/fulfilled/count", h.count(h.store.FulfilledOrdersCount))
	r.Get("/api/orders/remains/count", h.count(h.store.RemainingOrdersCount))
	r.Get("/api/orders/all", h.withExecutor(h.recentOrders))
	r.Get("/api/dashboard/summary", h.withExecutor(h.summary))
}

type executorHandler func(w http.ResponseWriter, r *http.Request, exec shopify.Executor)

func (h *Handler) withExecutor(next executorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionhttp.SessionFromContext(r.Context())
		if !ok {
			h.errs.HandleError(w, r, commonerrors.ErrMissingSession)
			return
		}
		next(w, r, h.executors(session.Shop, session.AccessToken))
	}
}

func (h *Handler) count(fn func(context.Context, shopify.Executor) (int, error)) http.HandlerFunc {
	return h.withExecutor(func(w http.ResponseWriter, r *http.Request, exec shopify.Executor) {
		n, err := fn(r.Context(), exec)
		if err != nil {
			h.errs.HandleError(w, r, err)
			return
		}
		commonhttp.WriteData(w, http.StatusOK, map[string]int{"count": n})
	})
}

func (h *Handler) shopInfo(w http.ResponseWriter, r *http.Request, exec shopify.Executor) {
	info, err := h.store.ShopInfo(r.Context(), exec)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{"storeInfo": info})
}

func (h *Handler) recentOrders(w http.ResponseWriter, r *http.Request, exec shopify.Executor) {
	orders, err := h.store.RecentOrders(r.Context(), exec)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, exec shopify.Executor) {
	products, err := h.store.ListProducts(r.Context(), exec)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

func (h *Handler) createProducts(w http.ResponseWriter, r *http.Request, exec shopify.Executor) {
	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSampleProducts {
			h.errs.HandleError(w, r, ErrInvalidSampleCount)
			return
		}
		count = n
	}

	created, err := h.store.CreateSampleProducts(r.Context(), exec, count)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{
		"created":  len(created),
		"products": created,
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, exec shopify.Executor) {
	var req domain.ProductUpdate
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errs.HandleError(w, r, commonerrors.ErrInvalidPayload.WithCause(err))
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), exec, req)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": product,
	})
}

type deleteProductRequest struct {
	ID string `json:"id"`
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request, exec shopify.Executor) {
	var req deleteProductRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errs.HandleError(w, r, commonerrors.ErrInvalidPayload.WithCause(err))
		return
	}
	if req.ID == "" {
		req.ID = r.URL.Query().Get("id")
	}

	deletedID, err := h.store.DeleteProduct(r.Context(), exec, req.ID)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, map[string]any{
		"message":   "Product deleted successfully",
		"deletedId": deletedID,
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request, exec shopify.Executor) {
	sum, err := h.store.Summary(r.Context(), exec)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteData(w, http.StatusOK, sum)
}
