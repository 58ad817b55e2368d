package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/movelend/lending-service/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user and their initial risk profile
func (r *Repository) CreateUser(user *models.User) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO lending.users (username, email, wallet_address, password_hash, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err = tx.QueryRow(query, user.Username, user.Email, user.WalletAddress, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	profileQuery := `
		INSERT INTO lending.risk_profiles (user_id, score, last_activity_at, updated_at)
		VALUES ($1, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	if _, err := tx.Exec(profileQuery, user.ID); err != nil {
		return fmt.Errorf("failed to create risk profile: %w", err)
	}

	return tx.Commit()
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, wallet_address, password_hash, created_at
		FROM lending.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.WalletAddress, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by ID
func (r *Repository) FindUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, wallet_address, password_hash, created_at
		FROM lending.users
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&user.ID, &user.Username, &user.Email, &user.WalletAddress, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetRiskProfile retrieves a user's risk profile
func (r *Repository) GetRiskProfile(userID int64) (*models.RiskProfile, error) {
	profile := &models.RiskProfile{}
	query := `
		SELECT user_id, score, last_activity_at, updated_at
		FROM lending.risk_profiles
		WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).
		Scan(&profile.UserID, &profile.Score, &profile.LastActivityAt, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("risk profile not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk profile: %w", err)
	}
	return profile, nil
}

// SaveRiskProfile persists score and activity changes
func (r *Repository) SaveRiskProfile(profile *models.RiskProfile) error {
	query := `
		UPDATE lending.risk_profiles
		SET score = $2, last_activity_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1`
	result, err := r.db.Exec(query, profile.UserID, profile.Score, profile.LastActivityAt)
	if err != nil {
		return fmt.Errorf("failed to save risk profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save risk profile: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("risk profile not found: %w", ErrNotFound)
	}
	return nil
}

// ListInactiveProfiles returns profiles with no activity since the cutoff
// and a score still above zero
func (r *Repository) ListInactiveProfiles(cutoff time.Time) ([]*models.RiskProfile, error) {
	query := `
		SELECT user_id, score, last_activity_at, updated_at
		FROM lending.risk_profiles
		WHERE last_activity_at < $1 AND score > 0`
	rows, err := r.db.Query(query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.RiskProfile
	for rows.Next() {
		profile := &models.RiskProfile{}
		if err := rows.Scan(&profile.UserID, &profile.Score, &profile.LastActivityAt, &profile.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan risk profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}
