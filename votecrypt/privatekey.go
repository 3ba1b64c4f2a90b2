package votecrypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"

	"github.com/phayes/errors"
)

// A DER encoded RSA private key
type PrivateKey []byte

var (
	ErrPrivateKeyInvalidPEM = errors.New("could not decode private key PEM block")
	ErrPrivateKeyWrongType  = errors.New("could not find RSA PRIVATE KEY block")
	ErrPrivateKeyCryptoKey  = errors.New("could not parse private key bytes into an rsa.PrivateKey")
)

// NewPrivateKey creates a PrivateKey from PEM block bytes
func NewPrivateKey(PEMBlockBytes []byte) (PrivateKey, error) {
	PEMBlock, _ := pem.Decode(PEMBlockBytes)
	if PEMBlock == nil {
		return nil, ErrPrivateKeyInvalidPEM
	}
	return NewPrivateKeyFromBlock(PEMBlock)
}

// NewPrivateKeyFromBlock creates a PrivateKey from a pem.Block
// This function also performs error checking to make sure the key is valid.
func NewPrivateKeyFromBlock(PEMBlock *pem.Block) (PrivateKey, error) {
	if PEMBlock.Type != "RSA PRIVATE KEY" {
		return nil, errors.Wraps(ErrPrivateKeyWrongType, "found "+PEMBlock.Type)
	}

	_, err := x509.ParsePKCS1PrivateKey(PEMBlock.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, ErrPrivateKeyInvalidPEM)
	}

	return PrivateKey(PEMBlock.Bytes), nil
}

// NewPrivateKeyFromCryptoKey creates a PrivateKey from an rsa.PrivateKey struct
func NewPrivateKeyFromCryptoKey(priv *rsa.PrivateKey) PrivateKey {
	return PrivateKey(x509.MarshalPKCS1PrivateKey(priv))
}

// GeneratePrivateKey generates a fresh election private key.
func GeneratePrivateKey(keySize int) (PrivateKey, error) {
	if keySize < MinKeySize {
		keySize = MinKeySize
	}
	cryptoKey, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, errors.Wrap(err, ErrKeyGeneration)
	}
	return NewPrivateKeyFromCryptoKey(cryptoKey), nil
}

// Bytes extracts the raw DER bytes out of the private key
func (pk PrivateKey) Bytes() []byte {
	return []byte(pk)
}

// GetCryptoKey parses the PrivateKey (which is stored as a der encoded key)
// into an rsa.PrivateKey object, ready to be used for crypto functions
func (pk PrivateKey) GetCryptoKey() (*rsa.PrivateKey, error) {
	privkey, err := x509.ParsePKCS1PrivateKey(pk.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, ErrPrivateKeyCryptoKey)
	}
	return privkey, nil
}

// Fingerprint returns the short fingerprint recorded in key shares so that a
// reconstructed key can be cross-checked against the key that was split.
func (pk PrivateKey) Fingerprint() string {
	return KeyFingerprint(pk.Bytes())
}

// Decrypt opens an RSA-OAEP sealed payload (a wrapped symmetric key).
// A key/ciphertext mismatch or corrupted ciphertext fails with ErrDecryption,
// distinguishable from the share-quorum errors raised during reconstruction.
func (pk PrivateKey) Decrypt(ciphertext []byte) ([]byte, error) {
	cryptoKey, err := pk.GetCryptoKey()
	if err != nil {
		return nil, errors.Wrap(err, ErrDecryption)
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, cryptoKey, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrDecryption, "RSA-OAEP decrypt: %v", err)
	}
	return plaintext, nil
}

// PublicKey derives the public half of the key pair.
func (pk PrivateKey) PublicKey() (PublicKey, error) {
	cryptoKey, err := pk.GetCryptoKey()
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromCryptoKey(&cryptoKey.PublicKey)
}

// IsEmpty checks if the private key is empty of any bytes
func (pk PrivateKey) IsEmpty() bool {
	return len(pk) == 0
}

// Implements Stringer. Renders the key as a PEM block.
func (pk PrivateKey) String() string {
	pemBlock := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: pk.Bytes(),
	}
	return string(pem.EncodeToMemory(&pemBlock))
}
