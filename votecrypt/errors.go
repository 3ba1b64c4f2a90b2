package votecrypt

import "github.com/phayes/errors"

// Error kinds shared across the vote-protection core. Callers should use
// errors.IsA to map a failure onto a transport status or an audit detail
// rather than matching on message strings.
var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("record not found")
	ErrConflict           = errors.New("record already exists")
	ErrKeyGeneration      = errors.New("could not generate key material")
	ErrEncryption         = errors.New("encryption failed")
	ErrDecryption         = errors.New("decryption failed")
	ErrInsufficientShares = errors.New("not enough key shares to meet the reconstruction quorum")
	ErrInvalidShare       = errors.New("key share failed verification")
)
