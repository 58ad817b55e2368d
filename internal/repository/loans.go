package repository

import (
	"database/sql"
	"fmt"

	"github.com/movelend/lending-service/internal/models"
	"github.com/movelend/lending-service/internal/riskengine"
)

// CreateLoan inserts a new loan with its origination terms
func (r *Repository) CreateLoan(loan *models.Loan) error {
	query := `
		INSERT INTO lending.loans
			(id, borrower_id, principal, annual_rate_bps, duration_seconds,
			 num_payments, collateral, rate_fallback, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(query,
		loan.ID, loan.BorrowerID, int64(loan.Principal), loan.AnnualRateBps,
		int64(loan.DurationSeconds), loan.NumPayments, int64(loan.Collateral),
		loan.RateFallback, loan.Status).
		Scan(&loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoanByID retrieves a loan by ID
func (r *Repository) FindLoanByID(id string) (*models.Loan, error) {
	loan := &models.Loan{}
	query := `
		SELECT id, borrower_id, principal, annual_rate_bps, duration_seconds,
		       num_payments, collateral, rate_fallback, status, created_at, updated_at
		FROM lending.loans
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&loan.ID, &loan.BorrowerID, &loan.Principal, &loan.AnnualRateBps,
			&loan.DurationSeconds, &loan.NumPayments, &loan.Collateral,
			&loan.RateFallback, &loan.Status, &loan.CreatedAt, &loan.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loan not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// UpdateLoanStatus records a lifecycle transition reported by the ledger
func (r *Repository) UpdateLoanStatus(id string, status models.LoanStatus) error {
	query := `
		UPDATE lending.loans
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	result, err := r.db.Exec(query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("loan not found: %w", ErrNotFound)
	}
	return nil
}

// InsertSchedule stores all schedule entries for a loan in one transaction
func (r *Repository) InsertSchedule(loanID string, entries []riskengine.PaymentScheduleEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO lending.payment_schedules
			(loan_id, payment_number, due_date, principal_portion,
			 interest_portion, total_amount, is_paid, paid_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, entry := range entries {
		_, err := tx.Exec(query,
			loanID, entry.PaymentNumber, entry.DueDate, int64(entry.PrincipalPortion),
			int64(entry.InterestPortion), int64(entry.TotalAmount), entry.IsPaid, entry.PaidTimestamp)
		if err != nil {
			return fmt.Errorf("failed to insert schedule entry %d: %w", entry.PaymentNumber, err)
		}
	}
	return tx.Commit()
}

// ListSchedule returns all schedule entries for a loan ordered by due date
func (r *Repository) ListSchedule(loanID string) ([]riskengine.PaymentScheduleEntry, error) {
	query := `
		SELECT payment_number, due_date, principal_portion, interest_portion,
		       total_amount, is_paid, paid_timestamp
		FROM lending.payment_schedules
		WHERE loan_id = $1
		ORDER BY due_date ASC`
	rows, err := r.db.Query(query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	defer rows.Close()

	var entries []riskengine.PaymentScheduleEntry
	for rows.Next() {
		var entry riskengine.PaymentScheduleEntry
		err := rows.Scan(&entry.PaymentNumber, &entry.DueDate, &entry.PrincipalPortion,
			&entry.InterestPortion, &entry.TotalAmount, &entry.IsPaid, &entry.PaidTimestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindScheduleEntry retrieves a single schedule entry
func (r *Repository) FindScheduleEntry(loanID string, number uint32) (*riskengine.PaymentScheduleEntry, error) {
	entry := &riskengine.PaymentScheduleEntry{}
	query := `
		SELECT payment_number, due_date, principal_portion, interest_portion,
		       total_amount, is_paid, paid_timestamp
		FROM lending.payment_schedules
		WHERE loan_id = $1 AND payment_number = $2`
	err := r.db.QueryRow(query, loanID, number).
		Scan(&entry.PaymentNumber, &entry.DueDate, &entry.PrincipalPortion,
			&entry.InterestPortion, &entry.TotalAmount, &entry.IsPaid, &entry.PaidTimestamp)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schedule entry not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule entry: %w", err)
	}
	return entry, nil
}

// MarkEntryPaid records a confirmed payment against an unpaid entry
func (r *Repository) MarkEntryPaid(loanID string, number uint32, paidAt int64) error {
	query := `
		UPDATE lending.payment_schedules
		SET is_paid = TRUE, paid_timestamp = $3
		WHERE loan_id = $1 AND payment_number = $2 AND is_paid = FALSE`
	result, err := r.db.Exec(query, loanID, number, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark entry paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark entry paid: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("schedule entry not found or already paid: %w", ErrNotFound)
	}
	return nil
}

// CountUnpaidEntries returns how many entries remain unpaid on a loan
func (r *Repository) CountUnpaidEntries(loanID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM lending.payment_schedules
		WHERE loan_id = $1 AND is_paid = FALSE`
	if err := r.db.QueryRow(query, loanID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unpaid entries: %w", err)
	}
	return count, nil
}

// ListDueReminders returns unpaid entries on active loans due before the
// horizon, joined with borrower contact details
func (r *Repository) ListDueReminders(horizon int64) ([]models.PaymentReminder, error) {
	query := `
		SELECT u.email, u.username, l.id, s.payment_number, s.due_date, s.total_amount
		FROM lending.payment_schedules s
		JOIN lending.loans l ON l.id = s.loan_id
		JOIN lending.users u ON u.id = l.borrower_id
		WHERE s.is_paid = FALSE AND s.due_date <= $1 AND l.status = $2
		ORDER BY s.due_date ASC`
	rows, err := r.db.Query(query, horizon, models.LoanStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.PaymentReminder
	for rows.Next() {
		var reminder models.PaymentReminder
		err := rows.Scan(&reminder.Email, &reminder.Username, &reminder.LoanID,
			&reminder.PaymentNumber, &reminder.DueDate, &reminder.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

// CastVote records a member's vote on a pending loan; one vote per member
func (r *Repository) CastVote(vote *models.LoanVote) error {
	query := `
		INSERT INTO lending.loan_votes (loan_id, voter_id, approve, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (loan_id, voter_id) DO UPDATE SET approve = EXCLUDED.approve
		RETURNING created_at`
	err := r.db.QueryRow(query, vote.LoanID, vote.VoterID, vote.Approve).Scan(&vote.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to cast vote: %w", err)
	}
	return nil
}

// CountVotes aggregates the votes on a loan
func (r *Repository) CountVotes(loanID string) (*models.VoteCount, error) {
	count := &models.VoteCount{}
	query := `
		SELECT COUNT(*) FILTER (WHERE approve),
		       COUNT(*) FILTER (WHERE NOT approve),
		       COUNT(*)
		FROM lending.loan_votes
		WHERE loan_id = $1`
	if err := r.db.QueryRow(query, loanID).Scan(&count.Yes, &count.No, &count.Total); err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
