package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/movelend/lending-service/internal/middleware"
)

// QuoteRate prices a reputation score without creating a loan
func (h *Handler) QuoteRate(w http.ResponseWriter, r *http.Request) {
	score, err := strconv.Atoi(mux.Vars(r)["score"])
	if err != nil {
		http.Error(w, "invalid score", http.StatusBadRequest)
		return
	}

	quote, err := h.svc.QuoteRate(r.Context(), score)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// CreateLoan handles a loan request from the authenticated borrower
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	borrowerID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Principal       uint64 `json:"principal"`
		DurationSeconds uint64 `json:"duration_seconds"`
		NumPayments     uint32 `json:"num_payments"`
		Collateral      uint64 `json:"collateral"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	loan, err := h.svc.RequestLoan(r.Context(), borrowerID, req.Principal, req.DurationSeconds, req.NumPayments, req.Collateral)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// CastVote records the authenticated member's vote on a pending loan
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	count, err := h.svc.CastVote(mux.Vars(r)["id"], voterID, req.Approve)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// ApproveLoan activates a pending loan and returns its schedule
func (h *Handler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ApproveLoan(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// RejectLoan moves a pending loan to rejected
func (h *Handler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RejectLoan(mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// GetSchedule returns the loan schedule annotated with live status
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Schedule(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// RecordPayment settles a schedule entry after an on-chain confirmation
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number, err := strconv.ParseUint(vars["number"], 10, 32)
	if err != nil {
		http.Error(w, "invalid payment number", http.StatusBadRequest)
		return
	}

	// Body is optional: paid_at defaults to the server clock.
	var req struct {
		PaidAt int64 `json:"paid_at"`
	}
	if err := readJSON(r, &req); err != nil && err != io.EOF {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.svc.RecordPayment(vars["id"], uint32(number), req.PaidAt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
