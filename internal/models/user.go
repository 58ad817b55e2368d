package models

import "time"

// User represents a registered borrower or lender
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	WalletAddress string    `json:"wallet_address"`
	PasswordHash  string    `json:"-"` // Not serialized
	CreatedAt     time.Time `json:"created_at"`
}
