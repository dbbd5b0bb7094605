package taskverify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettleBelowThreshold(t *testing.T) {
	store := newTestStore(t)
	rewards := NewRewards(store)

	awarded, total, err := rewards.Settle("u1", 59.9)
	require.NoError(t, err)
	require.False(t, awarded)
	require.Equal(t, 0, total)

	points, err := store.GetPoints("u1")
	require.NoError(t, err)
	require.Equal(t, 0, points)
}

func TestSettleAtThreshold(t *testing.T) {
	store := newTestStore(t)
	rewards := NewRewards(store)

	// 60.0 is inclusive
	awarded, total, err := rewards.Settle("u1", 60.0)
	require.NoError(t, err)
	require.True(t, awarded)
	require.Equal(t, AwardPoints, total)
}

func TestSettleCreatesMissingUser(t *testing.T) {
	store := newTestStore(t)
	rewards := NewRewards(store)

	awarded, total, err := rewards.Settle("newuser", 100)
	require.NoError(t, err)
	require.True(t, awarded)
	require.Equal(t, 50, total)
}

func TestSettleTwiceAccumulates(t *testing.T) {
	store := newTestStore(t)
	rewards := NewRewards(store)

	_, _, err := rewards.Settle("u1", 80)
	require.NoError(t, err)
	_, total, err := rewards.Settle("u1", 80)
	require.NoError(t, err)
	require.Equal(t, 2*AwardPoints, total)
}

func TestSettleWithoutUser(t *testing.T) {
	store := newTestStore(t)
	rewards := NewRewards(store)

	_, _, err := rewards.Settle("", 100)
	require.ErrorIs(t, err, ErrAuthRequired)
}
