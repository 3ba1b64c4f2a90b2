package election

import (
	"time"

	"github.com/Onyex101/secureballot-sub006/votecrypt"
)

// ReceiptStatus reports what a voter may learn from their receipt code:
// that the vote exists and whether it has been counted. It never carries
// the plaintext choice; the sealed record cannot be read without the
// election private key, and the access-control decision for decrypted
// content lives outside this module.
type ReceiptStatus struct {
	IsValid       bool       `json:"isValid"`
	IsProcessed   bool       `json:"isProcessed"`
	ElectionID    string     `json:"electionId,omitempty"`
	ElectionName  string     `json:"electionName,omitempty"`
	VoteTimestamp *time.Time `json:"voteTimestamp,omitempty"`
	VoteSource    string     `json:"voteSource,omitempty"`
}

// VerifyByReceipt maps a receipt code back to a sealed vote. It fails soft:
// an unknown or malformed code yields IsValid=false, never an error, so a
// probing caller learns nothing beyond existence.
func (m *Manager) VerifyByReceipt(receiptCode string) *ReceiptStatus {
	status := &ReceiptStatus{}

	if !votecrypt.ValidReceiptCode(receiptCode) {
		return status
	}

	rec, err := m.votes.LoadSealedVoteByReceipt(receiptCode)
	if err != nil {
		return status
	}

	status.IsValid = true
	status.IsProcessed = rec.IsCounted
	status.ElectionID = rec.ElectionID
	ts := rec.VoteTimestamp
	status.VoteTimestamp = &ts
	status.VoteSource = rec.VoteSource

	if e, err := m.elections.GetElection(rec.ElectionID); err == nil {
		status.ElectionName = e.Name
	}
	return status
}
