// Package election orchestrates the vote-protection core over the store
// collaborators: election key lifecycle, threshold reconstruction, vote
// sealing against the active key, batch decryption and receipt verification.
//
// A Manager holds no mutable state of its own; every operation is a
// stateless function over the supplied stores, so operations on unrelated
// elections may run in parallel with no coordination. The one-key-per-
// election and one-vote-per-voter invariants are enforced by the stores'
// conditional inserts, never assumed here.
package election

import (
	"log"
	"time"

	"github.com/Onyex101/secureballot-sub006/store"
	"github.com/Onyex101/secureballot-sub006/votecrypt"
	"github.com/phayes/errors"
)

var (
	ErrNoActiveKey = errors.New("election has no active key pair")
	ErrKeyExists   = errors.New("a key pair has already been generated for this election")
)

// Config carries the Manager tunables. Zero values select the defaults:
// 2048 bit keys, 5 shares with a quorum of 3.
type Config struct {
	KeySize    int
	ShareCount int
	Threshold  int
}

// Manager owns the per-election key pair lifecycle and is the only component
// that creates or mutates key records. Everything else reads the public key
// and its fingerprint through it.
type Manager struct {
	elections store.ElectionStore
	keys      store.KeyStore
	votes     store.VoteStore
	audit     store.AuditSink

	keySize    int
	shareCount int
	threshold  int
}

// NewManager wires a Manager to its collaborators. audit may be nil, in
// which case reconstruction attempts are only logged, not audited.
func NewManager(elections store.ElectionStore, keys store.KeyStore, votes store.VoteStore, audit store.AuditSink, cfg Config) *Manager {
	if cfg.KeySize == 0 {
		cfg.KeySize = votecrypt.MinKeySize
	}
	if cfg.ShareCount == 0 {
		cfg.ShareCount = votecrypt.DefaultShareCount
	}
	if cfg.Threshold == 0 {
		// ceil(N/2)
		cfg.Threshold = (cfg.ShareCount + 1) / 2
	}
	return &Manager{
		elections:  elections,
		keys:       keys,
		votes:      votes,
		audit:      audit,
		keySize:    cfg.KeySize,
		shareCount: cfg.ShareCount,
		threshold:  cfg.Threshold,
	}
}

// KeyRecordView is the share of a key record that leaves this package.
// It never carries private key material.
type KeyRecordView struct {
	ElectionID           string    `json:"electionId"`
	PublicKey            string    `json:"publicKey"`
	PublicKeyFingerprint string    `json:"publicKeyFingerprint"`
	ShareCount           int       `json:"shareCount"`
	Threshold            int       `json:"threshold"`
	GeneratedAt          time.Time `json:"generatedAt"`
	GeneratedBy          string    `json:"generatedBy"`
	IsActive             bool      `json:"isActive"`
}

func viewOf(rec *store.ElectionKeyRecord) *KeyRecordView {
	return &KeyRecordView{
		ElectionID:           rec.ElectionID,
		PublicKey:            rec.PublicKey.String(),
		PublicKeyFingerprint: rec.PublicKeyFingerprint,
		ShareCount:           len(rec.PrivateKeyShares),
		Threshold:            rec.Threshold,
		GeneratedAt:          rec.GeneratedAt,
		GeneratedBy:          rec.GeneratedBy,
		IsActive:             rec.IsActive,
	}
}

// GenerateElectionKeyPair creates the key pair for an election. Key
// generation is one-time per election: a second call fails with ErrConflict
// and leaves the first record untouched, as does losing a concurrent race.
// Auditing the generation is the caller's responsibility; the returned view
// carries the fingerprint the audit entry needs.
func (m *Manager) GenerateElectionKeyPair(electionID, generatedBy string) (*KeyRecordView, error) {
	if electionID == "" || generatedBy == "" {
		return nil, errors.Wraps(votecrypt.ErrValidation, "electionId and generatedBy are required")
	}

	if _, err := m.elections.GetElection(electionID); err != nil {
		return nil, err
	}

	if _, err := m.keys.LoadKeyRecord(electionID); err == nil {
		return nil, errors.Wrap(ErrKeyExists, votecrypt.ErrConflict)
	} else if !errors.IsA(err, votecrypt.ErrNotFound) {
		return nil, err
	}

	priv, err := votecrypt.GeneratePrivateKey(m.keySize)
	if err != nil {
		return nil, err
	}
	pub, err := priv.PublicKey()
	if err != nil {
		return nil, errors.Wrap(err, votecrypt.ErrKeyGeneration)
	}

	set, err := votecrypt.SplitPrivateKey(priv, m.shareCount, m.threshold)
	if err != nil {
		return nil, err
	}

	rec := &store.ElectionKeyRecord{
		ElectionID:           electionID,
		PublicKey:            pub,
		PublicKeyFingerprint: pub.Fingerprint(),
		EncryptedPrivateKey:  set.EncryptedPrivateKey,
		PrivateKeyIV:         set.PrivateKeyIV,
		PrivateKeyShares:     set.Shares,
		Threshold:            set.Threshold,
		GeneratedAt:          time.Now().UTC(),
		GeneratedBy:          generatedBy,
		IsActive:             true,
	}
	if err := m.keys.SaveKeyRecord(rec); err != nil {
		return nil, err
	}
	if err := m.elections.SetPublicKeyFingerprint(electionID, rec.PublicKeyFingerprint); err != nil {
		return nil, err
	}

	return viewOf(rec), nil
}

// ElectionPublicKey returns the active public key for an election. Sealing
// must never proceed against an inactive key, so a deactivated record is
// reported the same as a missing one.
func (m *Manager) ElectionPublicKey(electionID string) (votecrypt.PublicKey, error) {
	rec, err := m.keys.LoadKeyRecord(electionID)
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return nil, errors.Wrap(ErrNoActiveKey, votecrypt.ErrNotFound)
	}
	return rec.PublicKey, nil
}

// ElectionKeyInfo returns key metadata regardless of the active flag, for
// audit and history views.
func (m *Manager) ElectionKeyInfo(electionID string) (*KeyRecordView, error) {
	rec, err := m.keys.LoadKeyRecord(electionID)
	if err != nil {
		return nil, err
	}
	return viewOf(rec), nil
}

// DeactivateElectionKeys retires an election's key pair. The transition is
// terminal for the record: sealing stops until a new pair is generated for
// a fresh election.
func (m *Manager) DeactivateElectionKeys(electionID, deactivatedBy string) error {
	if _, err := m.keys.LoadKeyRecord(electionID); err != nil {
		return err
	}
	if err := m.keys.DeactivateKeyRecord(electionID); err != nil {
		return err
	}
	log.Printf("WARNING: election keys deactivated election=%s by=%s", electionID, deactivatedBy)
	return nil
}

// VerifyElectionKeyIntegrity recomputes the fingerprint of the stored public
// key and compares it to the stored fingerprint. It is a trust check, not a
// command: any failure, including a missing record, degrades to false and
// the caller treats false as "do not trust this key".
func (m *Manager) VerifyElectionKeyIntegrity(electionID string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	rec, err := m.keys.LoadKeyRecord(electionID)
	if err != nil {
		return false
	}
	if rec.PublicKey.IsEmpty() || rec.PublicKeyFingerprint == "" {
		return false
	}
	return rec.PublicKey.Fingerprint() == rec.PublicKeyFingerprint
}

// SealVote seals one vote against the election's active public key. The
// caller persists the returned record and is responsible for checking voter
// eligibility first; the store's uniqueness constraint backs the
// one-vote-per-voter invariant either way.
func (m *Manager) SealVote(payload *votecrypt.VotePayload, source string) (*votecrypt.SealedVote, error) {
	if payload == nil {
		return nil, errors.Wraps(votecrypt.ErrValidation, "no vote payload supplied")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	pub, err := m.ElectionPublicKey(payload.ElectionID)
	if err != nil {
		return nil, err
	}
	return votecrypt.SealVote(payload, source, pub)
}
