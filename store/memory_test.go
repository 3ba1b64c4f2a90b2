package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Onyex101/secureballot-sub006/votecrypt"
	"github.com/phayes/errors"
	"github.com/stretchr/testify/require"
)

func sampleKeyRecord(electionID string) *ElectionKeyRecord {
	return &ElectionKeyRecord{
		ElectionID:           electionID,
		PublicKeyFingerprint: "aaaabbbbccccdddd",
		EncryptedPrivateKey:  []byte("wrapped"),
		PrivateKeyIV:         []byte("iviviviviviv"),
		PrivateKeyShares: []votecrypt.KeyShare{
			{Index: 1, KeyHash: "aaaabbbbccccdddd", Share: "c2hhcmUx"},
			{Index: 2, KeyHash: "aaaabbbbccccdddd", Share: "c2hhcmUy"},
		},
		Threshold:   2,
		GeneratedAt: time.Now().UTC(),
		GeneratedBy: "admin-1",
		IsActive:    true,
	}
}

func sampleVote(voterID, electionID, receipt string) *SealedVoteRecord {
	return &SealedVoteRecord{
		SealedVote: votecrypt.SealedVote{
			ElectionID:           electionID,
			VoterID:              voterID,
			EncryptedVoteData:    []byte("ciphertext"),
			EncryptedAESKey:      []byte("wrapped key"),
			IV:                   []byte("iviviviviviv"),
			VoteHash:             "hash",
			PublicKeyFingerprint: "aaaabbbbccccdddd",
			VoteTimestamp:        time.Now().UTC(),
			VoteSource:           votecrypt.SourceWeb,
			ReceiptCode:          receipt,
		},
	}
}

func TestMemoryElections(t *testing.T) {
	m := NewMemory()

	_, err := m.GetElection("E1")
	require.True(t, errors.IsA(err, votecrypt.ErrNotFound))

	m.AddElection(&Election{ID: "E1", Name: "Presidential Election", Status: "active"})
	e, err := m.GetElection("E1")
	require.NoError(t, err)
	require.Equal(t, "Presidential Election", e.Name)

	require.NoError(t, m.SetPublicKeyFingerprint("E1", "aaaabbbbccccdddd"))
	e, err = m.GetElection("E1")
	require.NoError(t, err)
	require.Equal(t, "aaaabbbbccccdddd", e.PublicKeyFingerprint)

	require.True(t, errors.IsA(m.SetPublicKeyFingerprint("nope", "x"), votecrypt.ErrNotFound))
}

func TestMemoryKeyRecordInsertIfAbsent(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.SaveKeyRecord(sampleKeyRecord("E1")))

	second := sampleKeyRecord("E1")
	second.GeneratedBy = "admin-2"
	err := m.SaveKeyRecord(second)
	require.True(t, errors.IsA(err, votecrypt.ErrConflict), "got: %v", err)

	// First writer wins
	rec, err := m.LoadKeyRecord("E1")
	require.NoError(t, err)
	require.Equal(t, "admin-1", rec.GeneratedBy)
}

func TestMemoryKeyRecordDeactivate(t *testing.T) {
	m := NewMemory()
	require.True(t, errors.IsA(m.DeactivateKeyRecord("E1"), votecrypt.ErrNotFound))

	require.NoError(t, m.SaveKeyRecord(sampleKeyRecord("E1")))
	require.NoError(t, m.DeactivateKeyRecord("E1"))

	rec, err := m.LoadKeyRecord("E1")
	require.NoError(t, err)
	require.False(t, rec.IsActive)
}

func TestMemoryKeyRecordCopies(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.SaveKeyRecord(sampleKeyRecord("E1")))

	// Mutating a loaded record must not touch the stored one
	rec, err := m.LoadKeyRecord("E1")
	require.NoError(t, err)
	rec.PublicKeyFingerprint = "mutated"
	rec.PrivateKeyShares[0].Share = "mutated"

	fresh, err := m.LoadKeyRecord("E1")
	require.NoError(t, err)
	require.Equal(t, "aaaabbbbccccdddd", fresh.PublicKeyFingerprint)
	require.Equal(t, "c2hhcmUx", fresh.PrivateKeyShares[0].Share)
}

func TestMemoryVoteUniqueness(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.SaveSealedVote(sampleVote("v1", "E1", "RECEIPTCODE00001")))

	// Same voter, same election: conflict
	err := m.SaveSealedVote(sampleVote("v1", "E1", "RECEIPTCODE00002"))
	require.True(t, errors.IsA(err, votecrypt.ErrConflict), "got: %v", err)

	// Same voter, different election: fine
	require.NoError(t, m.SaveSealedVote(sampleVote("v1", "E2", "RECEIPTCODE00003")))

	// Receipt code collision: conflict
	err = m.SaveSealedVote(sampleVote("v2", "E1", "RECEIPTCODE00001"))
	require.True(t, errors.IsA(err, votecrypt.ErrConflict), "got: %v", err)
}

func TestMemoryVoteLookups(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.SaveSealedVote(sampleVote("v1", "E1", "RECEIPTCODE00001")))
	require.NoError(t, m.SaveSealedVote(sampleVote("v2", "E1", "RECEIPTCODE00002")))
	require.NoError(t, m.SaveSealedVote(sampleVote("v3", "E2", "RECEIPTCODE00003")))

	rec, err := m.LoadSealedVoteByReceipt("RECEIPTCODE00002")
	require.NoError(t, err)
	require.Equal(t, "v2", rec.VoterID)

	_, err = m.LoadSealedVoteByReceipt("NOPE")
	require.True(t, errors.IsA(err, votecrypt.ErrNotFound))

	rec, err = m.LoadSealedVote("v1", "E1")
	require.NoError(t, err)
	require.Equal(t, "RECEIPTCODE00001", rec.ReceiptCode)

	votes, err := m.ListSealedVotes("E1")
	require.NoError(t, err)
	require.Len(t, votes, 2)

	require.NoError(t, m.MarkVoteCounted("v1", "E1"))
	rec, err = m.LoadSealedVote("v1", "E1")
	require.NoError(t, err)
	require.True(t, rec.IsCounted)
}

func TestMemoryAuditEvents(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.RecordEvent(AuditEvent{
		ActorID:   "admin-1",
		EventType: EventKeyGeneration,
		Details:   map[string]string{"electionId": "E1"},
	}))

	events := m.Events()
	require.Len(t, events, 1)
	require.Equal(t, "admin-1", events[0].ActorID)
	require.False(t, events[0].At.IsZero())
}

func TestMemoryConcurrentKeyWritersFirstWins(t *testing.T) {
	m := NewMemory()

	const writers = 16
	var wg sync.WaitGroup
	conflicts := make(chan error, writers)
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			rec := sampleKeyRecord("E1")
			rec.GeneratedBy = fmt.Sprintf("admin-%d", i)
			if err := m.SaveKeyRecord(rec); err != nil {
				conflicts <- err
			}
		}(i)
	}
	wg.Wait()
	close(conflicts)

	var conflictCount int
	for err := range conflicts {
		require.True(t, errors.IsA(err, votecrypt.ErrConflict))
		conflictCount++
	}
	require.Equal(t, writers-1, conflictCount, "exactly one writer wins")

	_, err := m.LoadKeyRecord("E1")
	require.NoError(t, err)
}
