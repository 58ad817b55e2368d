package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/movelend/lending-service/internal/models"
)

// CreatePaymentRequest inserts a new P2P payment request
func (r *Repository) CreatePaymentRequest(req *models.PaymentRequest) error {
	query := `
		INSERT INTO lending.payment_requests
			(id, payer_id, recipient_id, amount_token, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(query,
		req.ID, req.PayerID, req.RecipientID, int64(req.AmountToken), req.Status, req.ExpiresAt).
		Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	return nil
}

// FindPaymentRequestByID retrieves a payment request by ID
func (r *Repository) FindPaymentRequestByID(id string) (*models.PaymentRequest, error) {
	req := &models.PaymentRequest{}
	query := `
		SELECT id, payer_id, recipient_id, amount_token, status, expires_at, created_at, updated_at
		FROM lending.payment_requests
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&req.ID, &req.PayerID, &req.RecipientID, &req.AmountToken,
			&req.Status, &req.ExpiresAt, &req.CreatedAt, &req.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment request not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment request: %w", err)
	}
	return req, nil
}

// UpdatePaymentRequestStatus transitions a payment request
func (r *Repository) UpdatePaymentRequestStatus(id string, status models.PaymentRequestStatus) error {
	query := `
		UPDATE lending.payment_requests
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	result, err := r.db.Exec(query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment request not found: %w", ErrNotFound)
	}
	return nil
}

// ExpireStaleRequests marks all created requests past their expiry
func (r *Repository) ExpireStaleRequests(now time.Time) (int64, error) {
	query := `
		UPDATE lending.payment_requests
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND expires_at < $3`
	result, err := r.db.Exec(query, models.PaymentRequestExpired, models.PaymentRequestCreated, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire payment requests: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to expire payment requests: %w", err)
	}
	return rows, nil
}
