// Package store defines the persistence and audit collaborators the
// vote-protection core depends on, together with an in-memory implementation
// for tests and a Postgres implementation for deployments.
//
// Every Save operation has insert-if-absent semantics: the uniqueness
// invariants (one key pair per election, one sealed vote per voter and
// election) are enforced here with conditional writes, and a concurrent
// duplicate surfaces as votecrypt.ErrConflict, never as a silent overwrite.
package store

import (
	"time"

	"github.com/Onyex101/secureballot-sub006/votecrypt"
)

// Election is the slice of election metadata the core reads. Full election
// management (candidates, schedules, status transitions) lives elsewhere.
type Election struct {
	ID                   string
	Name                 string
	Status               string
	PublicKeyFingerprint string
}

// ElectionKeyRecord is the persisted form of an election key pair. The
// private key appears only wrapped under the Shamir-shared secret; the raw
// key is never stored.
type ElectionKeyRecord struct {
	ElectionID           string
	PublicKey            votecrypt.PublicKey
	PublicKeyFingerprint string
	EncryptedPrivateKey  []byte
	PrivateKeyIV         []byte
	PrivateKeyShares     []votecrypt.KeyShare
	Threshold            int
	GeneratedAt          time.Time
	GeneratedBy          string
	IsActive             bool
}

// SealedVoteRecord wraps a sealed vote with the flags the persistence layer
// owns. IsCounted is set by the tallying collaborator, never by the core.
type SealedVoteRecord struct {
	votecrypt.SealedVote
	IsCounted bool
	CreatedAt time.Time
}

// AuditEvent is the structured detail handed to the audit collaborator
// around every security-sensitive operation.
type AuditEvent struct {
	ActorID   string
	EventType string
	IPAddress string
	UserAgent string
	Details   map[string]string
	At        time.Time
}

// Audit event types emitted by this module.
const (
	EventKeyGeneration     = "ELECTION_KEY_GENERATED"
	EventKeyDeactivation   = "ELECTION_KEY_DEACTIVATED"
	EventKeyReconstruction = "ELECTION_KEY_RECONSTRUCTED"
	EventVoteSealed        = "VOTE_SEALED"
)

// ElectionStore reads election metadata and records the fingerprint of the
// election's active public key.
type ElectionStore interface {
	GetElection(electionID string) (*Election, error)
	SetPublicKeyFingerprint(electionID, fingerprint string) error
}

// KeyStore persists election key records. SaveKeyRecord must be an atomic
// insert-if-absent: the first writer wins and later writers receive
// votecrypt.ErrConflict with the stored record left untouched.
type KeyStore interface {
	SaveKeyRecord(rec *ElectionKeyRecord) error
	LoadKeyRecord(electionID string) (*ElectionKeyRecord, error)
	DeactivateKeyRecord(electionID string) error
}

// VoteStore persists sealed votes. SaveSealedVote must reject a second vote
// for the same (voterId, electionId) pair, and a receipt code collision,
// with votecrypt.ErrConflict.
type VoteStore interface {
	SaveSealedVote(rec *SealedVoteRecord) error
	LoadSealedVoteByReceipt(receiptCode string) (*SealedVoteRecord, error)
	LoadSealedVote(voterID, electionID string) (*SealedVoteRecord, error)
	ListSealedVotes(electionID string) ([]*SealedVoteRecord, error)
	MarkVoteCounted(voterID, electionID string) error
}

// AuditSink receives audit events. A failing sink must never mask the error
// of the operation being audited; callers log sink failures and move on.
type AuditSink interface {
	RecordEvent(ev AuditEvent) error
}
