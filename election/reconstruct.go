package election

import (
	"log"
	"strconv"

	"github.com/Onyex101/secureballot-sub006/store"
	"github.com/Onyex101/secureballot-sub006/votecrypt"
	"github.com/phayes/errors"
)

// ReconstructionContext identifies who asked for key recovery and why.
// Both fields are mandatory: reconstruction without a named admin and a
// stated reason is rejected before any share is examined.
type ReconstructionContext struct {
	AdminID   string
	Reason    string
	IPAddress string
	UserAgent string
}

// ReconstructPrivateKey recovers an election's private key from a quorum of
// shares. Every invocation, successful or not, is reported to the audit sink
// with the requester identity, reason and share count; a failing sink never
// masks the reconstruction error itself.
func (m *Manager) ReconstructPrivateKey(electionID string, shares []votecrypt.KeyShare, rctx ReconstructionContext) (votecrypt.PrivateKey, error) {
	priv, err := m.reconstruct(electionID, shares, rctx)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.auditReconstruction(electionID, len(shares), outcome, err, rctx)

	if err == nil {
		log.Printf("WARNING: election private key reconstructed election=%s admin=%s reason=%q shares=%d",
			electionID, rctx.AdminID, rctx.Reason, len(shares))
	}
	return priv, err
}

func (m *Manager) reconstruct(electionID string, shares []votecrypt.KeyShare, rctx ReconstructionContext) (votecrypt.PrivateKey, error) {
	if rctx.AdminID == "" || rctx.Reason == "" {
		return nil, errors.Wraps(votecrypt.ErrValidation, "reconstruction requires an admin identity and a stated reason")
	}

	rec, err := m.keys.LoadKeyRecord(electionID)
	if err != nil {
		return nil, err
	}

	set := &votecrypt.ShareSet{
		Shares:              rec.PrivateKeyShares,
		Threshold:           rec.Threshold,
		EncryptedPrivateKey: rec.EncryptedPrivateKey,
		PrivateKeyIV:        rec.PrivateKeyIV,
	}
	return votecrypt.CombineShares(set, shares)
}

func (m *Manager) auditReconstruction(electionID string, sharesUsed int, outcome string, cause error, rctx ReconstructionContext) {
	if m.audit == nil {
		return
	}
	details := map[string]string{
		"electionId":      electionID,
		"reason":          rctx.Reason,
		"sharesSubmitted": strconv.Itoa(sharesUsed),
		"outcome":         outcome,
	}
	if cause != nil {
		details["error"] = cause.Error()
	}
	ev := store.AuditEvent{
		ActorID:   rctx.AdminID,
		EventType: store.EventKeyReconstruction,
		IPAddress: rctx.IPAddress,
		UserAgent: rctx.UserAgent,
		Details:   details,
	}
	if err := m.audit.RecordEvent(ev); err != nil {
		// The original error always wins; a broken sink is only logged.
		log.Printf("WARNING: could not record key reconstruction audit event: %v", err)
	}
}
