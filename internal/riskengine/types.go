package riskengine

// LoanTerms describes a loan at origination. Terms are immutable once the
// loan is created; the schedule is derived from them exactly once.
type LoanTerms struct {
	Principal       uint64 `json:"principal"`
	AnnualRateBps   uint32 `json:"annual_rate_bps"`
	DurationSeconds uint64 `json:"duration_seconds"`
	NumPayments     uint32 `json:"num_payments"`
	Collateral      uint64 `json:"collateral"`
}

// PaymentScheduleEntry is one installment of a repayment schedule. Entries
// are created at loan approval and only ever mutated by marking them paid.
type PaymentScheduleEntry struct {
	PaymentNumber    uint32 `json:"payment_number"`
	DueDate          int64  `json:"due_date"`
	PrincipalPortion uint64 `json:"principal_portion"`
	InterestPortion  uint64 `json:"interest_portion"`
	TotalAmount      uint64 `json:"total_amount"`
	IsPaid           bool   `json:"is_paid"`
	PaidTimestamp    int64  `json:"paid_timestamp"`
}

// RateQuote is the result of pricing a loan. Fallback is set when the tier
// lookup failed and the conservative default rate was used instead, so
// callers can tell the two apart.
type RateQuote struct {
	BasisPoints uint32 `json:"basis_points"`
	Fallback    bool   `json:"fallback"`
}

// PaymentStatus classifies a schedule entry relative to wall-clock time.
type PaymentStatus string

const (
	StatusPaid     PaymentStatus = "paid"
	StatusUpcoming PaymentStatus = "upcoming"
	StatusGrace    PaymentStatus = "grace"
	StatusOverdue  PaymentStatus = "overdue"
)
