package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Shashankesi/Threadly/internal/cart"
)

type cartLineRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  *int   `json:"quantity"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	h.writeCart(ctx, w, r, http.StatusOK)
}

// AddItem resolves the product from the catalog, so the stored price is the
// catalog's and not whatever the page displayed.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body cartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	productID := strings.TrimSpace(body.ProductID)
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	product, ok := h.catalog.Lookup(productID)
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	size, ok := product.ResolveSize(strings.TrimSpace(body.Size))
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "size "+size+" is not available for "+product.Name)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.cart.Add(ctx, product.CartProduct(), size); err != nil {
		h.internalError(w, r, "failed to save cart", err)
		return
	}
	h.writeCart(ctx, w, r, http.StatusOK)
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var body cartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	productID := strings.TrimSpace(body.ProductID)
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}
	if body.Quantity == nil {
		writeError(w, http.StatusBadRequest, "missing quantity")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.cart.SetQuantity(ctx, productID, lineSize(body.Size), *body.Quantity); err != nil {
		h.internalError(w, r, "failed to save cart", err)
		return
	}
	h.writeCart(ctx, w, r, http.StatusOK)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := strings.TrimSpace(q.Get("productId"))
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.cart.Remove(ctx, productID, lineSize(q.Get("size"))); err != nil {
		h.internalError(w, r, "failed to save cart", err)
		return
	}
	h.writeCart(ctx, w, r, http.StatusOK)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.cart.Clear(ctx); err != nil {
		h.internalError(w, r, "failed to clear cart", err)
		return
	}
	h.writeCart(ctx, w, r, http.StatusOK)
}

func (h *Handler) writeCart(ctx context.Context, w http.ResponseWriter, r *http.Request, status int) {
	items, err := h.cart.Items(ctx)
	if err != nil {
		h.internalError(w, r, "failed to load cart", err)
		return
	}
	writeJSON(w, status, newCartView(items))
}

// lineSize maps a blank size to the one Add stores for size-less lines.
func lineSize(size string) string {
	if size = strings.TrimSpace(size); size == "" {
		return cart.DefaultSize
	}
	return size
}
