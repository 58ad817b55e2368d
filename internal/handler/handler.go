package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/movelend/lending-service/internal/repository"
	"github.com/movelend/lending-service/internal/riskengine"
	"github.com/movelend/lending-service/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeError maps service errors to HTTP statuses. Unrecognized errors are
// logged with their detail; the client only sees a generic body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, riskengine.ErrInvalidTerms):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, riskengine.ErrNotEligible):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrLoanNotPending),
		errors.Is(err, service.ErrLoanNotActive),
		errors.Is(err, service.ErrVoteNotCarried),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrRequestExpired),
		errors.Is(err, service.ErrRequestProcessed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.WithError(err).Error("Unhandled service error")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username      string `json:"username"`
		Email         string `json:"email"`
		WalletAddress string `json:"wallet_address"`
		Password      string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.WalletAddress, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
