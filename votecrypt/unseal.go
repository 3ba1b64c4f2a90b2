package votecrypt

import (
	"github.com/phayes/errors"
)

var ErrVoteHashMismatch = errors.New("decrypted vote does not match the recorded vote hash")

// UnsealVote reverses SealVote with a reconstructed election private key:
// the wrapped AES key is recovered first, then the vote body is decrypted
// with it and the record's IV. The plaintext is cross-checked against the
// record's vote hash before it is returned.
func UnsealVote(sv *SealedVote, priv PrivateKey) (*VotePayload, error) {
	if sv == nil {
		return nil, errors.Wraps(ErrValidation, "no sealed vote supplied")
	}

	aesKey, err := priv.Decrypt(sv.EncryptedAESKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := AESDecrypt(sv.EncryptedVoteData, sv.IV, aesKey)
	if err != nil {
		return nil, err
	}

	if sv.VoteHash != "" && Fingerprint(plaintext) != sv.VoteHash {
		return nil, errors.Wrap(ErrVoteHashMismatch, ErrDecryption)
	}

	payload, err := ParseVotePayload(plaintext)
	if err != nil {
		return nil, errors.Wrap(err, ErrDecryption)
	}
	return payload, nil
}
