package votecrypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"

	"github.com/phayes/errors"
)

const (
	// MinKeySize is the smallest RSA modulus accepted for election keys.
	MinKeySize = 2048
)

var (
	ErrPublicKeyBase64    = errors.New("invalid public key. Could not read base64 encoded bytes")
	ErrPublicKeyMinSize   = errors.Newf("invalid public key - the modulus must be at least %d bits", MinKeySize)
	ErrPublicKeyLen       = errors.New("could not determine public key length")
	ErrPublicKeyCryptoKey = errors.New("could not parse public key bytes into an rsa.PublicKey")
)

// A DER encoded RSA public key
type PublicKey []byte

// NewPublicKey creates a PublicKey from a base64 encoded item, as stored in a
// key record or receieved at a service boundary.
// This function also performs error checking to make sure the key is valid.
func NewPublicKey(base64PublicKey []byte) (PublicKey, error) {
	decodedLen := base64.StdEncoding.DecodedLen(len(base64PublicKey))
	dbuf := make([]byte, decodedLen)
	n, err := base64.StdEncoding.Decode(dbuf, base64PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, ErrPublicKeyBase64)
	}
	pk := PublicKey(dbuf[:n])

	keylen, err := pk.KeyLength()
	if err != nil {
		return nil, err
	}
	if keylen < MinKeySize {
		return nil, errors.Wrapf(ErrPublicKeyMinSize, "got a %d bit key", keylen)
	}

	return pk, nil
}

// NewPublicKeyFromCryptoKey creates a PublicKey from an rsa.PublicKey struct
func NewPublicKeyFromCryptoKey(pub *rsa.PublicKey) (PublicKey, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return PublicKey(derBytes), nil
}

// Bytes extracts the raw DER bytes out of the public key
func (pk PublicKey) Bytes() []byte {
	return []byte(pk)
}

// GetCryptoKey parses the PublicKey (which is stored as a der encoded key) into
// an rsa.PublicKey object, ready to be used for crypto functions
func (pk PublicKey) GetCryptoKey() (*rsa.PublicKey, error) {
	pubkey, err := x509.ParsePKIXPublicKey(pk.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, ErrPublicKeyCryptoKey)
	}
	rsaKey, ok := pubkey.(*rsa.PublicKey)
	if !ok {
		return nil, ErrPublicKeyCryptoKey
	}
	return rsaKey, nil
}

// Fingerprint returns the short fingerprint that pins records to this key.
func (pk PublicKey) Fingerprint() string {
	return KeyFingerprint(pk.Bytes())
}

// Encrypt seals a small payload with RSA-OAEP. Payloads are bounded by the
// modulus size minus the OAEP overhead; this is only ever used to wrap a
// symmetric key, never a vote body.
func (pk PublicKey) Encrypt(plaintext []byte) ([]byte, error) {
	cryptoKey, err := pk.GetCryptoKey()
	if err != nil {
		return nil, errors.Wrap(err, ErrEncryption)
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, cryptoKey, plaintext, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrEncryption, "RSA-OAEP encrypt: %v", err)
	}
	return ciphertext, nil
}

// KeyLength gets the number of bits in the key
func (pk PublicKey) KeyLength() (int, error) {
	pubkey, err := pk.GetCryptoKey()
	if err != nil {
		return 0, errors.Wrap(err, ErrPublicKeyLen)
	}
	return pubkey.N.BitLen(), nil
}

// IsEmpty checks if the public key is empty of any bytes
func (pk PublicKey) IsEmpty() bool {
	return len(pk) == 0
}

// Implements Stringer
func (pk PublicKey) String() string {
	return base64.StdEncoding.EncodeToString(pk)
}
