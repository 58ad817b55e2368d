package models

import (
	"time"

	"github.com/movelend/lending-service/internal/riskengine"
)

// LoanStatus mirrors the lifecycle tracked by the on-chain ledger. The
// service never invents transitions; it records the ones it is told about.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusCompleted LoanStatus = "COMPLETED"
	LoanStatusRejected  LoanStatus = "REJECTED"
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
)

// Loan represents a loan and its immutable origination terms
type Loan struct {
	ID              string     `json:"id"`
	BorrowerID      int64      `json:"borrower_id"`
	Principal       uint64     `json:"principal"`
	AnnualRateBps   uint32     `json:"annual_rate_bps"`
	DurationSeconds uint64     `json:"duration_seconds"`
	NumPayments     uint32     `json:"num_payments"`
	Collateral      uint64     `json:"collateral"`
	RateFallback    bool       `json:"rate_fallback"`
	Status          LoanStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Terms returns the origination terms for schedule derivation.
func (l *Loan) Terms() riskengine.LoanTerms {
	return riskengine.LoanTerms{
		Principal:       l.Principal,
		AnnualRateBps:   l.AnnualRateBps,
		DurationSeconds: l.DurationSeconds,
		NumPayments:     l.NumPayments,
		Collateral:      l.Collateral,
	}
}

// LoanVote is a single member vote on a pending loan
type LoanVote struct {
	LoanID    string    `json:"loan_id"`
	VoterID   int64     `json:"voter_id"`
	Approve   bool      `json:"approve"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteCount aggregates votes on a pending loan
type VoteCount struct {
	Yes   int `json:"yes_votes"`
	No    int `json:"no_votes"`
	Total int `json:"total_votes"`
}

// Supermajority reports whether yes votes carry the proposal. No votes at
// all is never a supermajority.
func (v VoteCount) Supermajority() bool {
	if v.Total == 0 {
		return false
	}
	return v.Yes*2 > v.Total
}

// PaymentReminder is a due or overdue schedule entry joined with the
// borrower's contact details, produced for the reminder job.
type PaymentReminder struct {
	Email         string
	Username      string
	LoanID        string
	PaymentNumber uint32
	DueDate       int64
	TotalAmount   uint64
}
