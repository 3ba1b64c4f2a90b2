package votecrypt

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/phayes/errors"
)

const (
	MaxElectionIDSize = 48
	MaxVoterIDSize    = 64
)

// Channel tags identifying where a vote was cast from.
const (
	SourceWeb     = "web"
	SourceMobile  = "mobile"
	SourceUSSD    = "ussd"
	SourceOffline = "offline"
)

var (
	// ValidElectionID limits election identifiers to characters that are safe
	// to embed in URLs, receipts and database keys.
	ValidElectionID = regexp.MustCompile(`^[0-9a-zA-Z\-_]+$`)

	ErrVoteMissingField  = errors.New("vote payload has a missing or empty field")
	ErrVoteBadElectionID = errors.New("electionId contains illegal characters or is too long")
	ErrVoteBadSource     = errors.New("unknown vote source channel")
	ErrVotePayloadParse  = errors.New("could not parse vote payload")
)

// VotePayload is the plaintext ballot that gets sealed. It is a closed record
// type: every field is validated before sealing.
type VotePayload struct {
	VoterID       string    `json:"voterId"`
	ElectionID    string    `json:"electionId"`
	CandidateID   string    `json:"candidateId"`
	PollingUnitID string    `json:"pollingUnitId"`
	Timestamp     time.Time `json:"timestamp"`
}

// Validate checks that every field of the payload is present and well formed.
func (v *VotePayload) Validate() error {
	if v.VoterID == "" || v.ElectionID == "" || v.CandidateID == "" || v.PollingUnitID == "" {
		return errors.Wrap(ErrVoteMissingField, ErrValidation)
	}
	if v.Timestamp.IsZero() {
		return errors.Wraps(errors.Wrap(ErrVoteMissingField, ErrValidation), "timestamp is not set")
	}
	if len(v.VoterID) > MaxVoterIDSize {
		return errors.Wrap(ErrVoteMissingField, ErrValidation)
	}
	if len(v.ElectionID) > MaxElectionIDSize || !ValidElectionID.MatchString(v.ElectionID) {
		return errors.Wrap(ErrVoteBadElectionID, ErrValidation)
	}
	return nil
}

// Serialize renders the payload to its canonical byte form. The same bytes
// feed both the symmetric cipher and the vote hash, so the encoding must be
// deterministic for a given payload.
func (v *VotePayload) Serialize() ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, ErrValidation)
	}
	return b, nil
}

// Hash returns the deterministic digest of the serialized payload, used for
// integrity cross-checks without decryption.
func (v *VotePayload) Hash() (string, error) {
	b, err := v.Serialize()
	if err != nil {
		return "", err
	}
	return Fingerprint(b), nil
}

// ParseVotePayload reverses Serialize.
func ParseVotePayload(b []byte) (*VotePayload, error) {
	var v VotePayload
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, errors.Wrap(err, ErrVotePayloadParse)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// ValidVoteSource reports whether s is one of the known channel tags.
func ValidVoteSource(s string) bool {
	switch s {
	case SourceWeb, SourceMobile, SourceUSSD, SourceOffline:
		return true
	}
	return false
}
