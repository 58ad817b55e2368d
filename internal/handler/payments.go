package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/movelend/lending-service/internal/middleware"
	"github.com/movelend/lending-service/internal/models"
)

type paymentRequestResponse struct {
	Request      *models.PaymentRequest `json:"request"`
	Installments []uint64               `json:"installments,omitempty"`
}

// CreatePaymentRequest records a P2P payment request from the
// authenticated payer
func (h *Handler) CreatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	payerID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		RecipientID  int64  `json:"recipient_id"`
		AmountToken  uint64 `json:"amount_token"`
		Installments uint32 `json:"installments"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Installments == 0 {
		req.Installments = 1
	}

	created, plan, err := h.svc.CreatePaymentRequest(payerID, req.RecipientID, req.AmountToken, req.Installments)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentRequestResponse{Request: created, Installments: plan})
}

// CompletePaymentRequest marks a request settled after an on-chain
// confirmation
func (h *Handler) CompletePaymentRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.CompletePaymentRequest(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
