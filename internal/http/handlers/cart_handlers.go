package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rogerio-castellano/cart-store/internal/cart"
	"github.com/rogerio-castellano/cart-store/internal/catalog"
	mw "github.com/rogerio-castellano/cart-store/internal/http/middleware"
	"github.com/rogerio-castellano/cart-store/internal/session"
	"go.uber.org/zap"
)

// CartHandler serves the shopper's cart. Every route but CreateSession runs
// behind mw.Session, which supplies the session whose cart is used.
type CartHandler struct {
	registry *session.Registry
	issuer   *session.Issuer
	log      *zap.Logger
}

func NewCartHandler(registry *session.Registry, issuer *session.Issuer, log *zap.Logger) *CartHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartHandler{registry: registry, issuer: issuer, log: log}
}

// CreateSession godoc
// @Summary Start a shopping session
// @Description Returns a bearer token bound to a new, empty cart
// @Tags session
// @Produce json
// @Success 201 {object} SessionResponse
// @Failure 500 {object} ErrorResponse
// @Router /session [post]
func (h *CartHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, token, err := h.issuer.Issue()
	if err != nil {
		h.log.Error("issue session token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create session", "")
		return
	}
	h.log.Debug("session created", zap.String("session_id", id))
	writeJSON(w, http.StatusCreated, SessionResponse{Token: token})
}

// GetCart godoc
// @Summary Get the cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CartResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /cart [get]
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(store))
}

// AddProduct godoc
// @Summary Add one unit of a product
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Out of stock"
// @Failure 502 {object} ErrorResponse "Catalog unavailable"
// @Router /cart/products/{id} [post]
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, s *cart.Store, id int) error {
		return s.AddProduct(ctx, id)
	})
}

// UpdateProductAmount godoc
// @Summary Set the amount of a product in the cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param amount body AmountRequest true "New amount"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Out of stock"
// @Failure 502 {object} ErrorResponse "Catalog unavailable"
// @Router /cart/products/{id} [put]
func (h *CartHandler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid input", "")
		return
	}
	h.mutate(w, r, func(ctx context.Context, s *cart.Store, id int) error {
		return s.UpdateProductAmount(ctx, cart.UpdateAmount{ProductID: id, Amount: req.Amount})
	})
}

// RemoveProduct godoc
// @Summary Remove a product from the cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /cart/products/{id} [delete]
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, s *cart.Store, id int) error {
		return s.RemoveProduct(ctx, id)
	})
}

// Reconcile godoc
// @Summary Re-check the cart against current stock
// @Description Lines above stock are lowered. Lines out of stock or gone from the catalog are removed
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ReconcileResponse
// @Failure 502 {object} ErrorResponse
// @Router /cart/reconcile [post]
func (h *CartHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	adjustments, err := store.Reconcile(r.Context())
	if err != nil {
		h.writeCartError(w, err)
		return
	}
	if adjustments == nil {
		adjustments = []cart.Adjustment{}
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{Adjustments: adjustments, CartResponse: cartResponse(store)})
}

// ClearCart godoc
// @Summary Empty the cart and delete its stored copy
// @Tags cart
// @Security BearerAuth
// @Success 204 "Cleared"
// @Failure 500 {object} ErrorResponse
// @Router /cart [delete]
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.Clear(r.Context()); err != nil {
		h.writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, *cart.Store, int) error) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID", "")
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), store, id); err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	id := mw.SessionID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing session", "")
		return nil, false
	}
	store, err := h.registry.Cart(r.Context(), id)
	if err != nil {
		h.log.Error("load cart", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load cart", "")
		return nil, false
	}
	return store, true
}

// Error codes returned in ErrorResponse.Error by the cart endpoints. The
// underlying error is logged, never sent.
const (
	CodeOutOfStock         = "out_of_stock"
	CodeInvalidAmount      = "invalid_amount"
	CodeNotInCart          = "not_in_cart"
	CodeProductNotFound    = "product_not_found"
	CodeConflict           = "conflict"
	CodePersistFailed      = "persist_failed"
	CodeTimeout            = "timeout"
	CodeCatalogUnavailable = "catalog_unavailable"
	CodeInternal           = "internal"
)

func (h *CartHandler) writeCartError(w http.ResponseWriter, err error) {
	status, code := cartErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn("cart operation failed", zap.Int("status", status), zap.String("code", code), zap.Error(err))
	} else {
		h.log.Debug("cart operation rejected", zap.String("code", code), zap.Error(err))
	}
	writeError(w, status, code, cart.UserMessage(err))
}

func cartErrorStatus(err error) (int, string) {
	var statusErr *catalog.StatusError
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		return http.StatusConflict, CodeOutOfStock
	case errors.Is(err, cart.ErrInvalidAmount):
		return http.StatusBadRequest, CodeInvalidAmount
	case errors.Is(err, cart.ErrNotFound):
		return http.StatusNotFound, CodeNotInCart
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, CodeProductNotFound
	case errors.Is(err, cart.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, cart.ErrPersist):
		return http.StatusInternalServerError, CodePersistFailed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.As(err, &statusErr),
		errors.Is(err, cart.ErrAddFailed),
		errors.Is(err, cart.ErrUpdateFailed),
		errors.Is(err, cart.ErrReconcileFailed):
		return http.StatusBadGateway, CodeCatalogUnavailable
	}
	return http.StatusInternalServerError, CodeInternal
}

func cartResponse(s *cart.Store) CartResponse {
	items := s.Cart()
	return CartResponse{Items: items, Totals: cart.Summarize(items)}
}
