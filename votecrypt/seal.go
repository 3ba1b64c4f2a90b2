package votecrypt

import (
	"time"

	"github.com/phayes/errors"
)

// SealedVote is the encrypted form of one cast ballot. Byte-valued fields are
// raw bytes in memory; encoding/json base64-encodes them at any HTTP boundary.
type SealedVote struct {
	ElectionID           string    `json:"electionId"`
	VoterID              string    `json:"voterId"`
	EncryptedVoteData    []byte    `json:"encryptedVoteData"`
	EncryptedAESKey      []byte    `json:"encryptedAesKey"`
	IV                   []byte    `json:"iv"`
	VoteHash             string    `json:"voteHash"`
	PublicKeyFingerprint string    `json:"publicKeyFingerprint"`
	VoteTimestamp        time.Time `json:"voteTimestamp"`
	VoteSource           string    `json:"voteSource"`
	ReceiptCode          string    `json:"receiptCode"`
}

// SealVote hybrid-encrypts one vote against an election public key:
// the serialized payload is encrypted with a fresh AES key, and the AES key
// is itself sealed under the election's RSA public key. The returned record
// is not persisted here and sealing is never idempotent - the AES key, IV
// and receipt code are freshly random on every call, so a caller must not
// re-seal the same logical vote and expect the same ciphertext.
func SealVote(payload *VotePayload, source string, electionKey PublicKey) (*SealedVote, error) {
	if payload == nil {
		return nil, errors.Wrap(ErrVoteMissingField, ErrValidation)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if !ValidVoteSource(source) {
		return nil, errors.Wrap(ErrVoteBadSource, ErrValidation)
	}

	plaintext, err := payload.Serialize()
	if err != nil {
		return nil, err
	}

	aesKey, err := GenerateAESKey()
	if err != nil {
		return nil, err
	}

	iv, encryptedVoteData, err := AESEncrypt(plaintext, aesKey)
	if err != nil {
		return nil, err
	}

	encryptedAESKey, err := electionKey.Encrypt(aesKey)
	if err != nil {
		return nil, err
	}

	receiptCode, err := GenerateReceiptCode()
	if err != nil {
		return nil, err
	}

	return &SealedVote{
		ElectionID:           payload.ElectionID,
		VoterID:              payload.VoterID,
		EncryptedVoteData:    encryptedVoteData,
		EncryptedAESKey:      encryptedAESKey,
		IV:                   iv,
		VoteHash:             Fingerprint(plaintext),
		PublicKeyFingerprint: electionKey.Fingerprint(),
		VoteTimestamp:        payload.Timestamp,
		VoteSource:           source,
		ReceiptCode:          receiptCode,
	}, nil
}
