package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shashankesi/Threadly/internal/checkout"
)

// redirectOnEmptyCart is where the page is sent when checkout is refused.
const redirectOnEmptyCart = "index.html"

// EnterCheckout starts a new checkout over the current cart, replacing any
// checkout already in progress. A refused entry also ends the checkout in
// progress, so its snapshot can no longer be placed.
func (h *Handler) EnterCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	wiz, err := checkout.Enter(ctx, h.cart, h.wizardOpts...)

	h.mu.Lock()
	h.wizard = wiz
	h.mu.Unlock()

	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newCheckoutView(wiz))
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.currentWizard(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutView(wiz))
}

func (h *Handler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.currentWizard(w)
	if !ok {
		return
	}

	var body checkout.Shipping
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := wiz.SubmitShipping(body); err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutView(wiz))
}

func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.currentWizard(w)
	if !ok {
		return
	}

	var body checkout.Payment
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := wiz.SubmitPayment(body); err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutView(wiz))
}

// ApplyCoupon answers 200 whether or not the code qualified; the result says
// which.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.currentWizard(w)
	if !ok {
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := wiz.ApplyCoupon(body.Code)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	d := wiz.Draft()
	writeJSON(w, http.StatusOK, couponView{
		CouponResult: res,
		Totals:       newTotalsView(d.Subtotal, d.Discount, d.FinalTotal()),
	})
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.currentWizard(w)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	receipt, err := wiz.PlaceOrder(ctx)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReceiptView(receipt))
}

func (h *Handler) GoBack(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.currentWizard(w)
	if !ok {
		return
	}
	if err := wiz.GoBack(); err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutView(wiz))
}

func (h *Handler) currentWizard(w http.ResponseWriter) (*checkout.Wizard, bool) {
	h.mu.Lock()
	wiz := h.wizard
	h.mu.Unlock()

	if wiz == nil {
		writeError(w, http.StatusNotFound, "no checkout in progress")
		return nil, false
	}
	return wiz, true
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  verr.Message,
			"fields": verr.Fields,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":    checkout.EmptyCartMessage,
			"redirect": redirectOnEmptyCart,
		})
	case errors.Is(err, checkout.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.internalError(w, r, "checkout failed", err)
	}
}
