package election

import (
	"encoding/json"
	"testing"

	"github.com/Onyex101/secureballot-sub006/store"
	"github.com/Onyex101/secureballot-sub006/votecrypt"
	"github.com/stretchr/testify/require"
)

func TestVerifyByReceipt(t *testing.T) {
	m, mem := newTestManager(t)
	_, err := m.GenerateElectionKeyPair("E1", "admin-1")
	require.NoError(t, err)

	sealed, err := m.SealVote(testVote("v1", "E1", "c7"), votecrypt.SourceMobile)
	require.NoError(t, err)
	require.NoError(t, mem.SaveSealedVote(&store.SealedVoteRecord{SealedVote: *sealed}))

	status := m.VerifyByReceipt(sealed.ReceiptCode)
	require.True(t, status.IsValid)
	require.False(t, status.IsProcessed)
	require.Equal(t, "E1", status.ElectionID)
	require.Equal(t, "Presidential Election", status.ElectionName)
	require.Equal(t, votecrypt.SourceMobile, status.VoteSource)
	require.NotNil(t, status.VoteTimestamp)
	require.True(t, status.VoteTimestamp.Equal(sealed.VoteTimestamp))

	// Counted votes report as processed
	require.NoError(t, mem.MarkVoteCounted("v1", "E1"))
	status = m.VerifyByReceipt(sealed.ReceiptCode)
	require.True(t, status.IsValid)
	require.True(t, status.IsProcessed)
}

func TestVerifyByReceiptFailsSoft(t *testing.T) {
	m, _ := newTestManager(t)

	// Unknown but well formed code
	status := m.VerifyByReceipt("ABCDEFGHJKLMNPQR")
	require.False(t, status.IsValid)
	require.False(t, status.IsProcessed)
	require.Empty(t, status.ElectionID)

	// Malformed codes never error either
	for _, code := range []string{"", "short", "has spaces in it", "abcdefghjklmnpqr"} {
		status := m.VerifyByReceipt(code)
		require.False(t, status.IsValid, "code %q", code)
	}
}

func TestVerifyByReceiptNeverRevealsChoice(t *testing.T) {
	m, mem := newTestManager(t)
	_, err := m.GenerateElectionKeyPair("E1", "admin-1")
	require.NoError(t, err)

	sealed, err := m.SealVote(testVote("v1", "E1", "c7"), votecrypt.SourceWeb)
	require.NoError(t, err)
	require.NoError(t, mem.SaveSealedVote(&store.SealedVoteRecord{SealedVote: *sealed}))

	status := m.VerifyByReceipt(sealed.ReceiptCode)
	require.True(t, status.IsValid)

	// The status carries metadata only; the candidate choice stays sealed
	rendered, err := json.Marshal(status)
	require.NoError(t, err)
	require.NotContains(t, string(rendered), "c7")
	require.NotContains(t, string(rendered), "candidate")
}
