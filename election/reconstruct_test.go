package election

import (
	"testing"
	"time"

	"github.com/Onyex101/secureballot-sub006/store"
	"github.com/Onyex101/secureballot-sub006/votecrypt"
	"github.com/phayes/errors"
	"github.com/stretchr/testify/require"
)

func testVote(voterID, electionID, candidateID string) *votecrypt.VotePayload {
	return &votecrypt.VotePayload{
		VoterID:       voterID,
		ElectionID:    electionID,
		CandidateID:   candidateID,
		PollingUnitID: "pu3",
		Timestamp:     time.Date(2027, 2, 25, 9, 30, 0, 0, time.UTC),
	}
}

func electionShares(t *testing.T, mem *store.Memory, electionID string) []votecrypt.KeyShare {
	t.Helper()
	rec, err := mem.LoadKeyRecord(electionID)
	require.NoError(t, err)
	return rec.PrivateKeyShares
}

func adminCtx() ReconstructionContext {
	return ReconstructionContext{
		AdminID:   "admin-1",
		Reason:    "end-of-election tally",
		IPAddress: "10.0.0.7",
		UserAgent: "secureballot-cli",
	}
}

func TestReconstructQuorumEnforcement(t *testing.T) {
	m, mem := newTestManager(t)
	_, err := m.GenerateElectionKeyPair("E1", "admin-1")
	require.NoError(t, err)
	shares := electionShares(t, mem, "E1")

	// Two shares are below the quorum of three
	_, err = m.ReconstructPrivateKey("E1", shares[:2], adminCtx())
	require.True(t, errors.IsA(err, votecrypt.ErrInsufficientShares), "got: %v", err)

	// Three valid shares succeed and the key round-trips
	priv, err := m.ReconstructPrivateKey("E1", shares[:3], adminCtx())
	require.NoError(t, err)

	pub, err := m.ElectionPublicKey("E1")
	require.NoError(t, err)
	ciphertext, err := pub.Encrypt([]byte("sealed key"))
	require.NoError(t, err)
	plaintext, err := priv.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, "sealed key", string(plaintext))
}

func TestReconstructAlteredShare(t *testing.T) {
	m, mem := newTestManager(t)
	_, err := m.GenerateElectionKeyPair("E1", "admin-1")
	require.NoError(t, err)
	shares := electionShares(t, mem, "E1")

	submitted := append([]votecrypt.KeyShare(nil), shares[:3]...)
	token := []byte(submitted[0].Share)
	token[5] ^= 0x01
	submitted[0].Share = string(token)

	_, err = m.ReconstructPrivateKey("E1", submitted, adminCtx())
	require.True(t, errors.IsA(err, votecrypt.ErrInvalidShare), "got: %v", err)
}

func TestReconstructMissingKeyRecord(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.ReconstructPrivateKey("E1", nil, adminCtx())
	require.True(t, errors.IsA(err, votecrypt.ErrNotFound), "got: %v", err)
}

func TestReconstructRequiresContext(t *testing.T) {
	m, mem := newTestManager(t)
	_, err := m.GenerateElectionKeyPair("E1", "admin-1")
	require.NoError(t, err)
	shares := electionShares(t, mem, "E1")

	_, err = m.ReconstructPrivateKey("E1", shares[:3], ReconstructionContext{AdminID: "admin-1"})
	require.True(t, errors.IsA(err, votecrypt.ErrValidation), "missing reason: got %v", err)

	_, err = m.ReconstructPrivateKey("E1", shares[:3], ReconstructionContext{Reason: "tally"})
	require.True(t, errors.IsA(err, votecrypt.ErrValidation), "missing admin: got %v", err)
}

func TestReconstructAuditsEveryAttempt(t *testing.T) {
	m, mem := newTestManager(t)
	_, err := m.GenerateElectionKeyPair("E1", "admin-1")
	require.NoError(t, err)
	shares := electionShares(t, mem, "E1")

	// One failure and one success
	_, err = m.ReconstructPrivateKey("E1", shares[:1], adminCtx())
	require.Error(t, err)
	_, err = m.ReconstructPrivateKey("E1", shares[:3], adminCtx())
	require.NoError(t, err)

	events := mem.Events()
	require.Len(t, events, 2)

	failure := events[0]
	require.Equal(t, store.EventKeyReconstruction, failure.EventType)
	require.Equal(t, "admin-1", failure.ActorID)
	require.Equal(t, "failure", failure.Details["outcome"])
	require.Equal(t, "1", failure.Details["sharesSubmitted"])
	require.Equal(t, "end-of-election tally", failure.Details["reason"])
	require.NotEmpty(t, failure.Details["error"])

	success := events[1]
	require.Equal(t, store.EventKeyReconstruction, success.EventType)
	require.Equal(t, "success", success.Details["outcome"])
	require.Equal(t, "3", success.Details["sharesSubmitted"])
	require.Equal(t, "E1", success.Details["electionId"])
	require.NotContains(t, success.Details, "error")
}

type failingSink struct{}

func (failingSink) RecordEvent(store.AuditEvent) error {
	return errors.New("audit store is down")
}

func TestAuditFailureNeverMasksReconstructionError(t *testing.T) {
	mem := store.NewMemory()
	mem.AddElection(&store.Election{ID: "E1", Name: "Presidential Election", Status: "active"})
	m := NewManager(mem, mem, mem, failingSink{}, Config{})

	_, err := m.GenerateElectionKeyPair("E1", "admin-1")
	require.NoError(t, err)
	shares := electionShares(t, mem, "E1")

	// The quorum error wins over the sink failure
	_, err = m.ReconstructPrivateKey("E1", shares[:1], adminCtx())
	require.True(t, errors.IsA(err, votecrypt.ErrInsufficientShares), "got: %v", err)

	// And success stays a success
	priv, err := m.ReconstructPrivateKey("E1", shares[:3], adminCtx())
	require.NoError(t, err)
	require.False(t, priv.IsEmpty())
}
