package taskverify

import (
	"errors"
	"log"
)

const (
	// PassThreshold is the minimum score percentage that earns points.
	PassThreshold = 60.0
	// AwardPoints is the fixed experience award for a passing attempt.
	AwardPoints = 50
)

// ErrAuthRequired is returned when settlement is attempted without a signed
// in user. Callers treat it as a silent no-op rather than a hard failure.
var ErrAuthRequired = errors.New("no active user session")

// Rewards settles experience points for completed verification attempts.
type Rewards struct {
	store *Store
}

// NewRewards creates a reward settler over the store
func NewRewards(store *Store) *Rewards {
	return &Rewards{store: store}
}

// Settle awards AwardPoints to the user when scorePercent reaches the
// threshold. The increment is a single atomic upsert, so concurrent
// settlements for the same user cannot lose an update. Returns whether an
// award happened and the user's current total.
func (rw *Rewards) Settle(userID string, scorePercent float64) (bool, int, error) {
	if userID == "" {
		return false, 0, ErrAuthRequired
	}

	if scorePercent < PassThreshold {
		total, err := rw.store.GetPoints(userID)
		if err != nil {
			log.Printf("Failed to read points for %s: %v", userID, err)
			return false, 0, err
		}
		return false, total, nil
	}

	total, err := rw.store.AddPoints(userID, AwardPoints)
	if err != nil {
		log.Printf("Failed to award points to %s: %v", userID, err)
		return false, 0, err
	}

	VerboseLog("Awarded %d points to %s (total %d)", AwardPoints, userID, total)
	return true, total, nil
}
