package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/movelend/lending-service/internal/models"
	"github.com/movelend/lending-service/internal/riskengine"
)

var (
	// ErrLoanNotPending is returned for votes or approvals against a loan
	// that already left the pending state.
	ErrLoanNotPending = errors.New("loan is not pending")

	// ErrLoanNotActive is returned for payments against a loan without an
	// active schedule.
	ErrLoanNotActive = errors.New("loan is not active")

	// ErrVoteNotCarried is returned when approval is attempted without a
	// supermajority of yes votes.
	ErrVoteNotCarried = errors.New("loan vote has not carried")

	// ErrAlreadyPaid is returned when a schedule entry was already settled.
	ErrAlreadyPaid = errors.New("schedule entry already paid")
)

// ScheduleEntryView is a schedule entry annotated with its live status.
type ScheduleEntryView struct {
	riskengine.PaymentScheduleEntry
	Status riskengine.PaymentStatus `json:"status"`
}

// QuoteRate prices a reputation score without creating a loan.
func (s *Service) QuoteRate(ctx context.Context, score int) (riskengine.RateQuote, error) {
	return s.engine.RateForReputation(ctx, score)
}

// RequestLoan prices and records a new pending loan for the borrower. The
// borrower's reputation score decides eligibility and the interest rate;
// ineligible borrowers are rejected before anything is stored.
func (s *Service) RequestLoan(ctx context.Context, borrowerID int64, principal, durationSeconds uint64, numPayments uint32, collateral uint64) (*models.Loan, error) {
	profile, err := s.store.GetRiskProfile(borrowerID)
	if err != nil {
		return nil, err
	}

	quote, err := s.engine.RateForReputation(ctx, profile.Score)
	if err != nil {
		return nil, fmt.Errorf("borrower %d: %w", borrowerID, err)
	}

	terms := riskengine.LoanTerms{
		Principal:       principal,
		AnnualRateBps:   quote.BasisPoints,
		DurationSeconds: durationSeconds,
		NumPayments:     numPayments,
		Collateral:      collateral,
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	loan := &models.Loan{
		ID:              uuid.NewString(),
		BorrowerID:      borrowerID,
		Principal:       principal,
		AnnualRateBps:   quote.BasisPoints,
		DurationSeconds: durationSeconds,
		NumPayments:     numPayments,
		Collateral:      collateral,
		RateFallback:    quote.Fallback,
		Status:          models.LoanStatusPending,
	}
	if err := s.store.CreateLoan(loan); err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s requested by borrower %d: principal %d at %d bps (fallback=%v)",
		loan.ID, borrowerID, principal, quote.BasisPoints, quote.Fallback)
	return loan, nil
}

// CastVote records a member vote on a pending loan
func (s *Service) CastVote(loanID string, voterID int64, approve bool) (*models.VoteCount, error) {
	loan, err := s.store.FindLoanByID(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusPending {
		return nil, ErrLoanNotPending
	}

	vote := &models.LoanVote{LoanID: loanID, VoterID: voterID, Approve: approve}
	if err := s.store.CastVote(vote); err != nil {
		return nil, err
	}
	return s.store.CountVotes(loanID)
}

// ApproveLoan activates a pending loan once the vote carries: it derives
// the repayment schedule from the origination terms, persists it, and marks
// the loan active. The caller reports approval only after the on-chain
// approval transaction is confirmed.
func (s *Service) ApproveLoan(loanID string) ([]riskengine.PaymentScheduleEntry, error) {
	loan, err := s.store.FindLoanByID(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusPending {
		return nil, ErrLoanNotPending
	}

	count, err := s.store.CountVotes(loanID)
	if err != nil {
		return nil, err
	}
	if !count.Supermajority() {
		return nil, fmt.Errorf("%w: %d yes of %d votes", ErrVoteNotCarried, count.Yes, count.Total)
	}

	entries, err := s.engine.BuildSchedule(loan.Terms(), s.now().Unix())
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertSchedule(loanID, entries); err != nil {
		return nil, err
	}
	if err := s.store.UpdateLoanStatus(loanID, models.LoanStatusActive); err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s approved with %d scheduled payments", loanID, len(entries))
	return entries, nil
}

// RejectLoan moves a pending loan to rejected
func (s *Service) RejectLoan(loanID string) error {
	loan, err := s.store.FindLoanByID(loanID)
	if err != nil {
		return err
	}
	if loan.Status != models.LoanStatusPending {
		return ErrLoanNotPending
	}
	if err := s.store.UpdateLoanStatus(loanID, models.LoanStatusRejected); err != nil {
		return err
	}
	s.log.Infof("Loan %s rejected", loanID)
	return nil
}

// RecordPayment settles a schedule entry after the caller confirms the
// on-chain transfer. The borrower's reputation gets an activity bump, and
// the loan completes when the final entry is paid. Reputation failures are
// logged, not returned: the payment itself already succeeded.
func (s *Service) RecordPayment(loanID string, number uint32, paidAt int64) (*riskengine.PaymentScheduleEntry, error) {
	loan, err := s.store.FindLoanByID(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusActive {
		return nil, ErrLoanNotActive
	}

	entry, err := s.store.FindScheduleEntry(loanID, number)
	if err != nil {
		return nil, err
	}
	if entry.IsPaid {
		return nil, ErrAlreadyPaid
	}

	if paidAt == 0 {
		paidAt = s.now().Unix()
	}
	if err := s.store.MarkEntryPaid(loanID, number, paidAt); err != nil {
		return nil, err
	}
	riskengine.MarkPaid(entry, paidAt)

	if err := s.recordActivity(loan.BorrowerID); err != nil {
		s.log.WithError(err).Warnf("Reputation update failed for borrower %d, payment already recorded", loan.BorrowerID)
	}

	unpaid, err := s.store.CountUnpaidEntries(loanID)
	if err != nil {
		return nil, err
	}
	if unpaid == 0 {
		if err := s.store.UpdateLoanStatus(loanID, models.LoanStatusCompleted); err != nil {
			return nil, err
		}
		s.log.Infof("Loan %s completed: all payments settled", loanID)
	}

	return entry, nil
}

// Schedule returns the loan's schedule annotated with live payment status.
func (s *Service) Schedule(loanID string) ([]ScheduleEntryView, error) {
	if _, err := s.store.FindLoanByID(loanID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListSchedule(loanID)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	views := make([]ScheduleEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, ScheduleEntryView{
			PaymentScheduleEntry: entry,
			Status:               riskengine.StatusOf(entry, now),
		})
	}
	return views, nil
}

// DueReminders lists unpaid entries due within the horizon (or already
// past due) for the reminder job.
func (s *Service) DueReminders(horizon int64) ([]models.PaymentReminder, error) {
	return s.store.ListDueReminders(s.now().Unix() + horizon)
}
