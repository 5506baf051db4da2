package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/shopcore/internal/catalog"
	"github.com/noah-isme/shopcore/internal/common"
)

// Handler exposes cart endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Routes mounts the cart endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/carts", h.Create)
	r.Get("/carts/{cartId}", h.Get)
	r.Get("/carts/{cartId}/quote", h.Quote)
	r.Post("/carts/{cartId}/items", h.AddItem)
	r.Patch("/carts/{cartId}/items/{itemId}", h.UpdateItem)
	r.Delete("/carts/{cartId}/items/{itemId}", h.RemoveItem)
}

// Create allocates a new empty cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Store.Create(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, c)
}

// Get returns the stored cart without repricing.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	c, err := h.Svc.Store.Get(r.Context(), cartID)
	if err != nil {
		h.renderCartError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, c)
}

// Quote reprices the cart against fresh catalog data.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	quote, err := h.Svc.Quote(r.Context(), cartID)
	if err != nil {
		h.renderCartError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, quote)
}

// AddItem validates and appends a product line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	var in AddItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	in.SKU = catalog.NormalizeSKU(in.SKU)
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid request", validationDetails(err))
			return
		}
	}
	c, err := h.Svc.AddItem(r.Context(), cartID, in)
	if err != nil {
		h.renderCartError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, c)
}

type updateItemInput struct {
	Qty int `json:"quantity" validate:"gt=0"`
}

// UpdateItem changes a line's quantity.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	itemID := chi.URLParam(r, "itemId")
	var in updateItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid request", validationDetails(err))
			return
		}
	}
	c, err := h.Svc.Store.UpdateQty(r.Context(), cartID, itemID, in.Qty)
	if err != nil {
		h.renderCartError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, c)
}

// RemoveItem deletes a line from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	itemID := chi.URLParam(r, "itemId")
	c, err := h.Svc.Store.RemoveLine(r.Context(), cartID, itemID)
	if err != nil {
		h.renderCartError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, c)
}

func (h *Handler) renderCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "CART_NOT_FOUND", "cart or cart item not found", nil)
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product or variant not found", nil)
	default:
		common.RenderError(w, err)
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return fields
}
