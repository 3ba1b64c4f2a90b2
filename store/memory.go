package store

import (
	"sync"
	"time"

	"github.com/Onyex101/secureballot-sub006/votecrypt"
	"github.com/phayes/errors"
)

// Memory is an in-process implementation of every collaborator interface.
// It is used by tests and by single-node tooling; all methods are safe for
// concurrent use and Save methods keep first-writer-wins semantics.
type Memory struct {
	mu        sync.Mutex
	elections map[string]*Election
	keys      map[string]*ElectionKeyRecord
	votes     map[string]*SealedVoteRecord // keyed voterID + "/" + electionID
	receipts  map[string]string            // receiptCode -> vote key
	events    []AuditEvent
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		elections: make(map[string]*Election),
		keys:      make(map[string]*ElectionKeyRecord),
		votes:     make(map[string]*SealedVoteRecord),
		receipts:  make(map[string]string),
	}
}

func voteKey(voterID, electionID string) string {
	return voterID + "/" + electionID
}

// AddElection seeds election metadata.
func (m *Memory) AddElection(e *Election) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.elections[e.ID] = &cp
}

func (m *Memory) GetElection(electionID string) (*Election, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.elections[electionID]
	if !ok {
		return nil, errors.Wrapf(votecrypt.ErrNotFound, "election %q", electionID)
	}
	cp := *e
	return &cp, nil
}

func (m *Memory) SetPublicKeyFingerprint(electionID, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.elections[electionID]
	if !ok {
		return errors.Wrapf(votecrypt.ErrNotFound, "election %q", electionID)
	}
	e.PublicKeyFingerprint = fingerprint
	return nil
}

func (m *Memory) SaveKeyRecord(rec *ElectionKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[rec.ElectionID]; ok {
		return errors.Wrapf(votecrypt.ErrConflict, "a key pair already exists for election %q", rec.ElectionID)
	}
	cp := *rec
	cp.PrivateKeyShares = append([]votecrypt.KeyShare(nil), rec.PrivateKeyShares...)
	m.keys[rec.ElectionID] = &cp
	return nil
}

func (m *Memory) LoadKeyRecord(electionID string) (*ElectionKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.keys[electionID]
	if !ok {
		return nil, errors.Wrapf(votecrypt.ErrNotFound, "no key record for election %q", electionID)
	}
	cp := *rec
	cp.PrivateKeyShares = append([]votecrypt.KeyShare(nil), rec.PrivateKeyShares...)
	return &cp, nil
}

func (m *Memory) DeactivateKeyRecord(electionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.keys[electionID]
	if !ok {
		return errors.Wrapf(votecrypt.ErrNotFound, "no key record for election %q", electionID)
	}
	rec.IsActive = false
	return nil
}

// CorruptPublicKeyFingerprint overwrites the stored fingerprint without
// touching the key, for exercising integrity verification in tests.
func (m *Memory) CorruptPublicKeyFingerprint(electionID, fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.keys[electionID]; ok {
		rec.PublicKeyFingerprint = fingerprint
	}
}

func (m *Memory) SaveSealedVote(rec *SealedVoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey(rec.VoterID, rec.ElectionID)
	if _, ok := m.votes[k]; ok {
		return errors.Wrapf(votecrypt.ErrConflict, "a sealed vote already exists for voter %q in election %q", rec.VoterID, rec.ElectionID)
	}
	if _, ok := m.receipts[rec.ReceiptCode]; ok {
		return errors.Wrapf(votecrypt.ErrConflict, "receipt code collision")
	}
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.votes[k] = &cp
	m.receipts[rec.ReceiptCode] = k
	return nil
}

func (m *Memory) LoadSealedVoteByReceipt(receiptCode string) (*SealedVoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.receipts[receiptCode]
	if !ok {
		return nil, errors.Wrapf(votecrypt.ErrNotFound, "no sealed vote for this receipt code")
	}
	cp := *m.votes[k]
	return &cp, nil
}

func (m *Memory) LoadSealedVote(voterID, electionID string) (*SealedVoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.votes[voteKey(voterID, electionID)]
	if !ok {
		return nil, errors.Wrapf(votecrypt.ErrNotFound, "no sealed vote for voter %q in election %q", voterID, electionID)
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) ListSealedVotes(electionID string) ([]*SealedVoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SealedVoteRecord
	for _, rec := range m.votes {
		if rec.ElectionID == electionID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) MarkVoteCounted(voterID, electionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.votes[voteKey(voterID, electionID)]
	if !ok {
		return errors.Wrapf(votecrypt.ErrNotFound, "no sealed vote for voter %q in election %q", voterID, electionID)
	}
	rec.IsCounted = true
	return nil
}

func (m *Memory) RecordEvent(ev AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of all recorded audit events.
func (m *Memory) Events() []AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AuditEvent(nil), m.events...)
}
