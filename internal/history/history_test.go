package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordRound("g-1", "win", 100, 100))
	require.NoError(t, s.RecordRound("g-1", "loss", 50, -50))
	require.NoError(t, s.RecordRound("g-1", "blackjack", 100, 150))
	require.NoError(t, s.RecordRound("g-other", "win", 25, 25))

	entries, err := s.Recent("g-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3, "other games excluded")

	// Newest first.
	assert.Equal(t, "blackjack", entries[0].Result)
	assert.Equal(t, "loss", entries[1].Result)
	assert.Equal(t, "win", entries[2].Result)
	assert.Equal(t, KindRound, entries[0].Kind)
	assert.Equal(t, 150, entries[0].Profit)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRound("g-1", "push", 25, 0))
	}
	entries, err := s.Recent("g-1", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestInsuranceIsSeparateEntry(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordRound("g-1", "loss", 100, -100))
	require.NoError(t, s.RecordInsurance("g-1", 50, 100))
	require.NoError(t, s.RecordInsurance("g-1", 50, -50))

	entries, err := s.Recent("g-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, KindInsurance, entries[0].Kind)
	assert.Equal(t, "insurance_loss", entries[0].Result)
	assert.Equal(t, "insurance_win", entries[1].Result)
	assert.Equal(t, 100, entries[1].Profit)
	assert.Equal(t, KindRound, entries[2].Kind)
}

func TestNetProfit(t *testing.T) {
	s := openTestStore(t)

	net, err := s.NetProfit("g-1")
	require.NoError(t, err)
	assert.Equal(t, 0, net, "empty ledger sums to zero")

	require.NoError(t, s.RecordRound("g-1", "win", 100, 100))
	require.NoError(t, s.RecordRound("g-1", "loss", 50, -50))
	require.NoError(t, s.RecordInsurance("g-1", 25, -25))

	net, err = s.NetProfit("g-1")
	require.NoError(t, err)
	assert.Equal(t, 25, net)
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordRound("g-1", "win", 100, 100))
	require.NoError(t, s.Close())

	// Reopen and read back.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.Recent("g-1", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
