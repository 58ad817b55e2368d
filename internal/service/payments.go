package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/movelend/lending-service/internal/models"
	"github.com/movelend/lending-service/internal/riskengine"
)

var (
	// ErrRequestExpired is returned when a payment request is past its
	// expiry; the request is marked expired as a side effect.
	ErrRequestExpired = errors.New("payment request has expired")

	// ErrRequestProcessed is returned when a payment request already left
	// the created state.
	ErrRequestProcessed = errors.New("payment request already processed")
)

// CreatePaymentRequest records a P2P payment request from payer to
// recipient with a 24h expiry. When installments > 1 the response carries a
// pay-later plan splitting the amount, remainder charged up front.
func (s *Service) CreatePaymentRequest(payerID, recipientID int64, amountToken uint64, installments uint32) (*models.PaymentRequest, []uint64, error) {
	if amountToken == 0 {
		return nil, nil, fmt.Errorf("amount must be positive")
	}
	if payerID == recipientID {
		return nil, nil, fmt.Errorf("payer and recipient must differ")
	}
	if _, err := s.store.FindUserByID(payerID); err != nil {
		return nil, nil, fmt.Errorf("payer: %w", err)
	}
	if _, err := s.store.FindUserByID(recipientID); err != nil {
		return nil, nil, fmt.Errorf("recipient: %w", err)
	}

	var plan []uint64
	if installments > 1 {
		var err error
		plan, err = riskengine.SplitInstallments(amountToken, installments)
		if err != nil {
			return nil, nil, err
		}
	}

	req := &models.PaymentRequest{
		ID:          uuid.NewString(),
		PayerID:     payerID,
		RecipientID: recipientID,
		AmountToken: amountToken,
		Status:      models.PaymentRequestCreated,
		ExpiresAt:   s.now().Add(models.PaymentRequestTTL),
	}
	if err := s.store.CreatePaymentRequest(req); err != nil {
		return nil, nil, err
	}

	s.log.Infof("Payment request %s created: %d tokens from %d to %d", req.ID, amountToken, payerID, recipientID)
	return req, plan, nil
}

// CompletePaymentRequest marks a request completed after the caller
// confirms the on-chain transfer. Both parties earn a reputation bump;
// reputation failures are logged and swallowed since the payment already
// settled.
func (s *Service) CompletePaymentRequest(id string) (*models.PaymentRequest, error) {
	req, err := s.store.FindPaymentRequestByID(id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.PaymentRequestCreated {
		return nil, fmt.Errorf("%w: %s", ErrRequestProcessed, req.Status)
	}
	if req.Expired(s.now()) {
		if err := s.store.UpdatePaymentRequestStatus(id, models.PaymentRequestExpired); err != nil {
			return nil, err
		}
		return nil, ErrRequestExpired
	}

	if err := s.store.UpdatePaymentRequestStatus(id, models.PaymentRequestCompleted); err != nil {
		return nil, err
	}
	req.Status = models.PaymentRequestCompleted

	for _, userID := range []int64{req.PayerID, req.RecipientID} {
		if err := s.recordActivity(userID); err != nil {
			s.log.WithError(err).Warnf("Reputation update failed for user %d, payment already completed", userID)
		}
	}

	// Receipt delivery is best-effort for the same reason: the payment
	// has already settled.
	if recipient, err := s.store.FindUserByID(req.RecipientID); err != nil {
		s.log.WithError(err).Warnf("Receipt skipped for request %s: recipient %d lookup failed", id, req.RecipientID)
	} else if err := s.mailer.SendPaymentRequestReceipt(recipient.Email, recipient.Username, req); err != nil {
		s.log.WithError(err).Warnf("Receipt email failed for request %s", id)
	}

	s.log.Infof("Payment request %s completed", id)
	return req, nil
}

// ExpireStalePaymentRequests sweeps created requests past their expiry.
func (s *Service) ExpireStalePaymentRequests() (int64, error) {
	expired, err := s.store.ExpireStaleRequests(s.now())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Infof("Expired %d stale payment requests", expired)
	}
	return expired, nil
}
