package service

import (
	"time"

	"github.com/movelend/lending-service/internal/models"
)

// ReputationScore returns a user's current reputation score.
func (s *Service) ReputationScore(userID int64) (int, error) {
	profile, err := s.store.GetRiskProfile(userID)
	if err != nil {
		return 0, err
	}
	return profile.Score, nil
}

// recordActivity rewards successful payment participation with a score bump.
func (s *Service) recordActivity(userID int64) error {
	profile, err := s.store.GetRiskProfile(userID)
	if err != nil {
		return err
	}
	profile.RecordActivity(s.now())
	return s.store.SaveRiskProfile(profile)
}

// ApplyReputationDecay lowers the score of every user inactive for the
// inactivity window. Returns how many profiles changed.
func (s *Service) ApplyReputationDecay() (int, error) {
	cutoff := s.now().Add(-models.InactivityDays * 24 * time.Hour)
	profiles, err := s.store.ListInactiveProfiles(cutoff)
	if err != nil {
		return 0, err
	}

	decayed := 0
	for _, profile := range profiles {
		if !profile.ApplyDecay() {
			continue
		}
		if err := s.store.SaveRiskProfile(profile); err != nil {
			s.log.WithError(err).Warnf("Failed to persist decay for user %d", profile.UserID)
			continue
		}
		decayed++
	}

	if decayed > 0 {
		s.log.Infof("Applied reputation decay to %d inactive users", decayed)
	}
	return decayed, nil
}
