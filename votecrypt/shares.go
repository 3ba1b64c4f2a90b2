package votecrypt

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/phayes/errors"
	"go.dedis.ch/kyber/v3/share"
	"go.dedis.ch/kyber/v3/suites"
)

const (
	// DefaultShareCount is the number of key shares issued per election.
	DefaultShareCount = 5

	// DefaultThreshold is the reconstruction quorum for DefaultShareCount,
	// following the ceil(N/2) rule.
	DefaultThreshold = 3
)

var shareSuite = suites.MustFind("Ed25519")

var (
	ErrShareParams   = errors.New("share parameters out of range: need 2 <= threshold <= share count")
	ErrShareToken    = errors.New("could not parse key share token")
	ErrShareRecovery = errors.New("could not recover the key encryption secret from the submitted shares")
)

// KeyShare is one distributable fragment of a split election private key.
// A share is a Shamir polynomial point over the Ed25519 scalar field; fewer
// than the quorum of shares carries no information about the key.
type KeyShare struct {
	Index   int    `json:"index"`
	KeyHash string `json:"keyHash"`
	Share   string `json:"share"`
}

// Token renders the share as a single transcribable string.
func (s KeyShare) Token() string {
	return fmt.Sprintf("%d.%s.%s", s.Index, s.KeyHash, s.Share)
}

// ParseShareToken reverses KeyShare.Token.
func ParseShareToken(token string) (KeyShare, error) {
	parts := strings.SplitN(strings.TrimSpace(token), ".", 3)
	if len(parts) != 3 {
		return KeyShare{}, errors.Wrap(ErrShareToken, ErrInvalidShare)
	}
	index, err := strconv.Atoi(parts[0])
	if err != nil || index < 1 {
		return KeyShare{}, errors.Wrap(ErrShareToken, ErrInvalidShare)
	}
	return KeyShare{Index: index, KeyHash: parts[1], Share: parts[2]}, nil
}

// ShareSet is everything that must be persisted to make an election private
// key recoverable by quorum: the issued shares, the threshold, and the
// private key wrapped under the shared key-encryption secret.
type ShareSet struct {
	Shares              []KeyShare
	Threshold           int
	EncryptedPrivateKey []byte
	PrivateKeyIV        []byte
}

// SplitPrivateKey splits priv into n shares with reconstruction quorum t.
//
// A random scalar is drawn as the key-encryption secret, an AES-256 key is
// derived from it, and the DER private key is wrapped with AES-GCM. The
// scalar - not the private key - is what gets Shamir-split, so share size
// stays constant regardless of the RSA modulus.
func SplitPrivateKey(priv PrivateKey, n, t int) (*ShareSet, error) {
	if t < 2 || t > n {
		return nil, errors.Wrap(ErrShareParams, ErrValidation)
	}
	if priv.IsEmpty() {
		return nil, errors.Wraps(ErrValidation, "no private key supplied")
	}

	secret := shareSuite.Scalar().Pick(shareSuite.RandomStream())
	kek, err := deriveKEK(secret.MarshalBinary())
	if err != nil {
		return nil, err
	}

	iv, wrapped, err := AESEncrypt(priv.Bytes(), kek)
	if err != nil {
		return nil, err
	}

	poly := share.NewPriPoly(shareSuite, t, secret, shareSuite.RandomStream())
	priShares := poly.Shares(n)

	keyHash := priv.Fingerprint()
	shares := make([]KeyShare, 0, n)
	for _, ps := range priShares {
		v, err := ps.V.MarshalBinary()
		if err != nil {
			return nil, errors.Wrap(err, ErrKeyGeneration)
		}
		shares = append(shares, KeyShare{
			Index:   ps.I + 1,
			KeyHash: keyHash,
			Share:   base64.StdEncoding.EncodeToString(v),
		})
	}

	return &ShareSet{
		Shares:              shares,
		Threshold:           t,
		EncryptedPrivateKey: wrapped,
		PrivateKeyIV:        iv,
	}, nil
}

// CombineShares recovers the election private key from a quorum of submitted
// shares. Every submitted share is verified against the stored set before
// interpolation; a share altered by even a single byte fails with
// ErrInvalidShare, and a sub-quorum submission fails with
// ErrInsufficientShares. Unwrap failures after a valid-looking quorum fail
// with ErrDecryption.
func CombineShares(set *ShareSet, submitted []KeyShare) (PrivateKey, error) {
	if set == nil || len(set.Shares) == 0 {
		return nil, errors.Wraps(ErrNotFound, "no share set available")
	}

	stored := make(map[int]KeyShare, len(set.Shares))
	for _, s := range set.Shares {
		stored[s.Index] = s
	}

	seen := make(map[int]bool, len(submitted))
	priShares := make([]*share.PriShare, 0, len(submitted))
	for _, s := range submitted {
		ref, ok := stored[s.Index]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidShare, "share index %d is not part of this key's share set", s.Index)
		}
		if s.KeyHash != ref.KeyHash || s.Share != ref.Share {
			return nil, errors.Wrapf(ErrInvalidShare, "share %d does not verify against the stored share set", s.Index)
		}
		if seen[s.Index] {
			continue
		}
		seen[s.Index] = true

		raw, err := base64.StdEncoding.DecodeString(s.Share)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidShare, "share %d is not valid base64", s.Index)
		}
		v := shareSuite.Scalar()
		if err := v.UnmarshalBinary(raw); err != nil {
			return nil, errors.Wrapf(ErrInvalidShare, "share %d does not decode to a scalar", s.Index)
		}
		priShares = append(priShares, &share.PriShare{I: s.Index - 1, V: v})
	}

	if len(priShares) < set.Threshold {
		return nil, errors.Wrapf(ErrInsufficientShares, "got %d distinct valid shares, quorum is %d", len(priShares), set.Threshold)
	}

	secret, err := share.RecoverSecret(shareSuite, priShares, set.Threshold, len(set.Shares))
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(err, ErrShareRecovery), ErrInvalidShare)
	}

	kek, err := deriveKEK(secret.MarshalBinary())
	if err != nil {
		return nil, err
	}

	der, err := AESDecrypt(set.EncryptedPrivateKey, set.PrivateKeyIV, kek)
	if err != nil {
		return nil, err
	}

	priv := PrivateKey(der)
	if priv.Fingerprint() != set.Shares[0].KeyHash {
		return nil, errors.Wraps(ErrDecryption, "recovered key does not match the share set's key fingerprint")
	}
	return priv, nil
}

// deriveKEK turns the shared scalar into an AES-256 key.
func deriveKEK(secretBytes []byte, marshalErr error) ([]byte, error) {
	if marshalErr != nil {
		return nil, errors.Wrap(marshalErr, ErrKeyGeneration)
	}
	sum := sha256.Sum256(secretBytes)
	return sum[:], nil
}
