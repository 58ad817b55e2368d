package models

import "time"

// Reputation score bounds and adjustment rules. Scores reward successful
// payment activity and decay for inactive users.
const (
	MinReputationScore = 0
	MaxReputationScore = 100

	ActivityBonus = 1
	DecayAmount   = 2

	InactivityDays = 30
)

// RiskProfile tracks a user's 0-100 reputation score
type RiskProfile struct {
	UserID         int64     `json:"user_id"`
	Score          int       `json:"score"`
	LastActivityAt time.Time `json:"last_activity_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RecordActivity bumps the score for a successful payment, capped at the
// maximum, and refreshes the activity timestamp.
func (p *RiskProfile) RecordActivity(now time.Time) {
	p.Score += ActivityBonus
	if p.Score > MaxReputationScore {
		p.Score = MaxReputationScore
	}
	p.LastActivityAt = now
}

// ApplyDecay lowers the score for inactivity, floored at zero. Returns
// false when the score is already at the floor and nothing changed.
func (p *RiskProfile) ApplyDecay() bool {
	if p.Score <= MinReputationScore {
		return false
	}
	p.Score -= DecayAmount
	if p.Score < MinReputationScore {
		p.Score = MinReputationScore
	}
	return true
}
