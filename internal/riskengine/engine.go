package riskengine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// GracePeriodSeconds is the window after the due date before an unpaid
	// entry is classified overdue.
	GracePeriodSeconds = 7 * 24 * 3600

	secondsPerYear = 365 * 24 * 3600
	bpsDenominator = 10_000

	primeRateBps    = 500
	fallbackRateBps = 1500

	primeScoreFloor    = 80
	eligibleScoreFloor = 60
	maxReputationScore = 100
)

var (
	// ErrNotEligible is returned when a reputation score is below the
	// lending floor (or outside the 0-100 domain entirely).
	ErrNotEligible = errors.New("reputation score not eligible for lending")

	// ErrInvalidTerms is returned by BuildSchedule for terms that cannot
	// produce a well-formed schedule.
	ErrInvalidTerms = errors.New("invalid loan terms")
)

// RateLookup resolves a mid-tier reputation score to an interest rate in
// basis points. Implemented by the rate oracle client.
type RateLookup interface {
	TierRate(ctx context.Context, score int) (uint32, error)
}

// Clock supplies wall-clock time so status evaluation stays testable.
type Clock func() time.Time

// Engine prices loans from reputation scores and derives repayment
// schedules. It holds no mutable state; collaborators are injected.
type Engine struct {
	rates RateLookup
	clock Clock
	log   *logrus.Logger
}

// New constructs an engine with its rate lookup and clock.
func New(rates RateLookup, clock Clock, log *logrus.Logger) *Engine {
	return &Engine{rates: rates, clock: clock, log: log}
}

// Now returns the engine's current time as unix seconds.
func (e *Engine) Now() int64 {
	return e.clock().Unix()
}

// RateForReputation maps a 0-100 reputation score to an interest rate.
// Scores of 80 and above get the prime rate without a lookup. Mid-tier
// scores (60-79) are priced by the oracle; if the lookup fails the engine
// falls back to a conservative default rather than surfacing the error, so
// a flaky oracle never blocks loan requests. Scores below 60 (or outside
// the score domain) are not eligible.
func (e *Engine) RateForReputation(ctx context.Context, score int) (RateQuote, error) {
	switch {
	case score >= primeScoreFloor && score <= maxReputationScore:
		return RateQuote{BasisPoints: primeRateBps}, nil
	case score >= eligibleScoreFloor && score < primeScoreFloor:
		bps, err := e.rates.TierRate(ctx, score)
		if err != nil {
			e.log.WithError(err).Warnf("Rate lookup failed for score %d, using fallback rate %d bps", score, fallbackRateBps)
			return RateQuote{BasisPoints: fallbackRateBps, Fallback: true}, nil
		}
		return RateQuote{BasisPoints: bps}, nil
	default:
		return RateQuote{}, ErrNotEligible
	}
}

// Validate checks that the terms can produce a well-formed schedule.
func (t LoanTerms) Validate() error {
	if t.Principal == 0 {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidTerms)
	}
	if t.NumPayments == 0 {
		return fmt.Errorf("%w: number of payments must be positive", ErrInvalidTerms)
	}
	if t.DurationSeconds < uint64(t.NumPayments) {
		return fmt.Errorf("%w: duration %ds cannot fit %d payments", ErrInvalidTerms, t.DurationSeconds, t.NumPayments)
	}
	return nil
}

// BuildSchedule splits the loan into NumPayments fixed-cadence installments
// starting from the given unix timestamp.
//
// The duration is divided into equal intervals by integer division; leftover
// seconds extend the final interval, so the last due date is always exactly
// start+duration. The principal is likewise divided evenly with the division
// remainder added to the final entry, keeping the sum of principal portions
// equal to the principal. Interest is simple pro-rata over each entry's
// actual interval length, truncated.
func (e *Engine) BuildSchedule(terms LoanTerms, start int64) ([]PaymentScheduleEntry, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	n := uint64(terms.NumPayments)
	interval := terms.DurationSeconds / n
	basePrincipal := terms.Principal / n

	entries := make([]PaymentScheduleEntry, 0, terms.NumPayments)
	for i := uint64(1); i <= n; i++ {
		intervalLen := interval
		due := start + int64(i*interval)
		principal := basePrincipal
		if i == n {
			intervalLen += terms.DurationSeconds % n
			due = start + int64(terms.DurationSeconds)
			principal += terms.Principal % n
		}
		interest := proRataInterest(terms.Principal, terms.AnnualRateBps, intervalLen)
		entries = append(entries, PaymentScheduleEntry{
			PaymentNumber:    uint32(i),
			DueDate:          due,
			PrincipalPortion: principal,
			InterestPortion:  interest,
			TotalAmount:      principal + interest,
		})
	}
	return entries, nil
}

// proRataInterest computes principal * bps * seconds / (10000 * secondsPerYear)
// truncated to an integer. big.Int keeps the intermediate product from
// overflowing for wei-scale principals.
func proRataInterest(principal uint64, rateBps uint32, seconds uint64) uint64 {
	num := new(big.Int).SetUint64(principal)
	num.Mul(num, big.NewInt(int64(rateBps)))
	num.Mul(num, new(big.Int).SetUint64(seconds))
	num.Quo(num, big.NewInt(bpsDenominator*secondsPerYear))
	return num.Uint64()
}

// StatusOf classifies an entry relative to the given unix time. Pure.
func StatusOf(entry PaymentScheduleEntry, now int64) PaymentStatus {
	switch {
	case entry.IsPaid:
		return StatusPaid
	case now > entry.DueDate+GracePeriodSeconds:
		return StatusOverdue
	case now > entry.DueDate:
		return StatusGrace
	default:
		return StatusUpcoming
	}
}

// MarkPaid records a confirmed payment against the entry. Callers invoke
// this only after the on-chain transfer is confirmed; the engine never
// submits transactions itself.
func MarkPaid(entry *PaymentScheduleEntry, paidAt int64) {
	entry.IsPaid = true
	entry.PaidTimestamp = paidAt
}

// SplitInstallments divides a pay-later amount into n equal installments.
// The division remainder is charged up front on the first installment, so
// the installments always sum to the original amount.
func SplitInstallments(total uint64, n uint32) ([]uint64, error) {
	if n == 0 {
		return nil, fmt.Errorf("%w: number of installments must be positive", ErrInvalidTerms)
	}
	base := total / uint64(n)
	parts := make([]uint64, n)
	parts[0] = base + total%uint64(n)
	for i := uint32(1); i < n; i++ {
		parts[i] = base
	}
	return parts, nil
}

// ProRataShares distributes an interest pot across member investments in
// proportion to each weight. Shares are truncated per member; dust below
// one unit per member stays undistributed.
func ProRataShares(total uint64, weights []uint64) ([]uint64, error) {
	var sum uint64
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return nil, errors.New("total investment is zero, cannot distribute")
	}
	shares := make([]uint64, len(weights))
	pot := new(big.Int).SetUint64(total)
	den := new(big.Int).SetUint64(sum)
	for i, w := range weights {
		share := new(big.Int).SetUint64(w)
		share.Mul(share, pot)
		share.Quo(share, den)
		shares[i] = share.Uint64()
	}
	return shares, nil
}
