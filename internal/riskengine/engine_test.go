package riskengine

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type stubLookup struct {
	bps   uint32
	err   error
	calls int
}

func (s *stubLookup) TierRate(ctx context.Context, score int) (uint32, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.bps, nil
}

func newTestEngine(lookup RateLookup, now int64) *Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(lookup, func() time.Time { return time.Unix(now, 0) }, log)
}

func TestRateForReputation(t *testing.T) {
	tests := []struct {
		name         string
		score        int
		lookup       stubLookup
		wantBps      uint32
		wantFallback bool
		wantErr      bool
		wantCalls    int
	}{
		{name: "prime score skips lookup", score: 85, lookup: stubLookup{bps: 900}, wantBps: 500, wantCalls: 0},
		{name: "prime floor", score: 80, wantBps: 500},
		{name: "top of domain", score: 100, wantBps: 500},
		{name: "mid tier uses lookup", score: 70, lookup: stubLookup{bps: 900}, wantBps: 900, wantCalls: 1},
		{name: "mid tier floor", score: 60, lookup: stubLookup{bps: 1200}, wantBps: 1200, wantCalls: 1},
		{name: "lookup failure falls back", score: 65, lookup: stubLookup{err: errors.New("oracle down")}, wantBps: 1500, wantFallback: true, wantCalls: 1},
		{name: "below eligibility floor", score: 59, wantErr: true},
		{name: "zero score", score: 0, wantErr: true},
		{name: "negative score", score: -1, wantErr: true},
		{name: "score above domain", score: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := tt.lookup
			e := newTestEngine(&lookup, 0)
			quote, err := e.RateForReputation(context.Background(), tt.score)
			if tt.wantErr {
				if !errors.Is(err, ErrNotEligible) {
					t.Fatalf("expected ErrNotEligible, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if quote.BasisPoints != tt.wantBps {
				t.Errorf("basis points = %d, want %d", quote.BasisPoints, tt.wantBps)
			}
			if quote.Fallback != tt.wantFallback {
				t.Errorf("fallback = %v, want %v", quote.Fallback, tt.wantFallback)
			}
			if lookup.calls != tt.wantCalls {
				t.Errorf("lookup calls = %d, want %d", lookup.calls, tt.wantCalls)
			}
		})
	}
}

func TestBuildScheduleEvenSplit(t *testing.T) {
	e := newTestEngine(&stubLookup{}, 0)
	terms := LoanTerms{Principal: 1_000_000, AnnualRateBps: 500, DurationSeconds: 120, NumPayments: 4}

	entries, err := e.BuildSchedule(terms, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	for i, entry := range entries {
		wantDue := int64(1000 + (i+1)*30)
		if entry.DueDate != wantDue {
			t.Errorf("entry %d due date = %d, want %d", i+1, entry.DueDate, wantDue)
		}
		if entry.PrincipalPortion != 250_000 {
			t.Errorf("entry %d principal = %d, want 250000", i+1, entry.PrincipalPortion)
		}
		if entry.PaymentNumber != uint32(i+1) {
			t.Errorf("entry %d payment number = %d", i+1, entry.PaymentNumber)
		}
		if entry.IsPaid || entry.PaidTimestamp != 0 {
			t.Errorf("entry %d should start unpaid", i+1)
		}
	}
}

func TestBuildSchedulePrincipalRemainderOnLastEntry(t *testing.T) {
	e := newTestEngine(&stubLookup{}, 0)
	terms := LoanTerms{Principal: 1_000_001, AnnualRateBps: 500, DurationSeconds: 120, NumPayments: 4}

	entries, err := e.BuildSchedule(terms, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint64{250_000, 250_000, 250_000, 250_001}
	for i, entry := range entries {
		if entry.PrincipalPortion != want[i] {
			t.Errorf("entry %d principal = %d, want %d", i+1, entry.PrincipalPortion, want[i])
		}
	}
}

func TestBuildScheduleProperties(t *testing.T) {
	e := newTestEngine(&stubLookup{}, 0)
	cases := []LoanTerms{
		{Principal: 1, AnnualRateBps: 10_000, DurationSeconds: 1, NumPayments: 1},
		{Principal: 7, AnnualRateBps: 1500, DurationSeconds: 100, NumPayments: 3},
		{Principal: 999_999_999_999, AnnualRateBps: 850, DurationSeconds: 365 * 24 * 3600, NumPayments: 12},
		{Principal: 1_000_000, AnnualRateBps: 0, DurationSeconds: 604_800, NumPayments: 7},
		{Principal: 123_456_789, AnnualRateBps: 2500, DurationSeconds: 1000, NumPayments: 13},
	}

	for _, terms := range cases {
		entries, err := e.BuildSchedule(terms, 50_000)
		if err != nil {
			t.Fatalf("terms %+v: unexpected error: %v", terms, err)
		}
		if uint32(len(entries)) != terms.NumPayments {
			t.Errorf("terms %+v: entries = %d, want %d", terms, len(entries), terms.NumPayments)
		}
		var principalSum uint64
		prevDue := int64(0)
		for _, entry := range entries {
			principalSum += entry.PrincipalPortion
			if entry.DueDate <= prevDue {
				t.Errorf("terms %+v: due dates not strictly increasing at entry %d", terms, entry.PaymentNumber)
			}
			prevDue = entry.DueDate
			if entry.TotalAmount != entry.PrincipalPortion+entry.InterestPortion {
				t.Errorf("terms %+v: entry %d total mismatch", terms, entry.PaymentNumber)
			}
		}
		if principalSum != terms.Principal {
			t.Errorf("terms %+v: principal sum = %d, want %d", terms, principalSum, terms.Principal)
		}
		last := entries[len(entries)-1]
		if last.DueDate != 50_000+int64(terms.DurationSeconds) {
			t.Errorf("terms %+v: final due date = %d, want %d", terms, last.DueDate, 50_000+int64(terms.DurationSeconds))
		}
	}
}

func TestBuildScheduleInterest(t *testing.T) {
	e := newTestEngine(&stubLookup{}, 0)
	// 100% annual rate over exactly one year in one payment: interest
	// equals the principal with no truncation loss.
	terms := LoanTerms{Principal: 1_000_000, AnnualRateBps: 10_000, DurationSeconds: 365 * 24 * 3600, NumPayments: 1}

	entries, err := e.BuildSchedule(terms, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].InterestPortion != 1_000_000 {
		t.Errorf("interest = %d, want 1000000", entries[0].InterestPortion)
	}
	if entries[0].TotalAmount != 2_000_000 {
		t.Errorf("total = %d, want 2000000", entries[0].TotalAmount)
	}
}

func TestBuildScheduleInvalidTerms(t *testing.T) {
	e := newTestEngine(&stubLookup{}, 0)
	cases := []LoanTerms{
		{Principal: 1000, AnnualRateBps: 500, DurationSeconds: 120, NumPayments: 0},
		{Principal: 1000, AnnualRateBps: 500, DurationSeconds: 3, NumPayments: 4},
		{Principal: 0, AnnualRateBps: 500, DurationSeconds: 120, NumPayments: 4},
	}
	for _, terms := range cases {
		if _, err := e.BuildSchedule(terms, 0); !errors.Is(err, ErrInvalidTerms) {
			t.Errorf("terms %+v: expected ErrInvalidTerms, got %v", terms, err)
		}
	}
}

func TestStatusOf(t *testing.T) {
	entry := PaymentScheduleEntry{PaymentNumber: 1, DueDate: 10_000}

	tests := []struct {
		now  int64
		want PaymentStatus
	}{
		{now: 0, want: StatusUpcoming},
		{now: 10_000, want: StatusUpcoming},
		{now: 10_001, want: StatusGrace},
		{now: 10_000 + GracePeriodSeconds, want: StatusGrace},
		{now: 10_001 + GracePeriodSeconds, want: StatusOverdue},
		{now: 1 << 40, want: StatusOverdue},
	}
	for _, tt := range tests {
		if got := StatusOf(entry, tt.now); got != tt.want {
			t.Errorf("StatusOf(now=%d) = %s, want %s", tt.now, got, tt.want)
		}
	}
}

// Status never moves backwards as time advances: upcoming -> grace ->
// overdue, and paid is terminal.
func TestStatusOfMonotonic(t *testing.T) {
	entry := PaymentScheduleEntry{PaymentNumber: 1, DueDate: 5000}
	rank := map[PaymentStatus]int{StatusUpcoming: 0, StatusGrace: 1, StatusOverdue: 2}

	prev := StatusUpcoming
	for now := int64(0); now < 5000+2*GracePeriodSeconds; now += 3600 {
		got := StatusOf(entry, now)
		if rank[got] < rank[prev] {
			t.Fatalf("status regressed from %s to %s at now=%d", prev, got, now)
		}
		prev = got
	}

	MarkPaid(&entry, 5000+GracePeriodSeconds+10)
	if got := StatusOf(entry, 1<<40); got != StatusPaid {
		t.Errorf("paid entry classified %s", got)
	}
}

func TestMarkPaid(t *testing.T) {
	entry := PaymentScheduleEntry{PaymentNumber: 3, DueDate: 100}
	MarkPaid(&entry, 42)
	if !entry.IsPaid {
		t.Error("entry not marked paid")
	}
	if entry.PaidTimestamp != 42 {
		t.Errorf("paid timestamp = %d, want 42", entry.PaidTimestamp)
	}
}

func TestSplitInstallments(t *testing.T) {
	parts, err := SplitInstallments(100, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint64{34, 33, 33}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("installment %d = %d, want %d", i+1, parts[i], want[i])
		}
	}

	if _, err := SplitInstallments(100, 0); err == nil {
		t.Error("expected error for zero installments")
	}
}

func TestProRataShares(t *testing.T) {
	shares, err := ProRataShares(1000, []uint64{1, 1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint64{250, 250, 500}
	for i := range want {
		if shares[i] != want[i] {
			t.Errorf("share %d = %d, want %d", i, shares[i], want[i])
		}
	}

	if _, err := ProRataShares(1000, []uint64{0, 0}); err == nil {
		t.Error("expected error for zero total investment")
	}
}
