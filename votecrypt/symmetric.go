package votecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/phayes/errors"
)

const (
	// AESKeySize is the byte length of vote encryption keys (AES-256).
	AESKeySize = 32

	// IVSize is the byte length of the per-encryption GCM nonce.
	IVSize = 12
)

var (
	ErrAESKeySize = errors.Newf("symmetric key must be %d bytes", AESKeySize)
	ErrIVSize     = errors.Newf("initialization vector must be %d bytes", IVSize)
)

// GenerateAESKey returns a fresh random AES-256 key.
func GenerateAESKey() ([]byte, error) {
	key := make([]byte, AESKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, ErrKeyGeneration)
	}
	return key, nil
}

// AESEncrypt encrypts plaintext with AES-256-GCM under the given key.
// A fresh random IV is generated on every invocation and returned alongside
// the ciphertext. The IV is never derived from content.
func AESEncrypt(plaintext, key []byte) (iv []byte, ciphertext []byte, err error) {
	if len(key) != AESKeySize {
		return nil, nil, errors.Wrap(ErrAESKeySize, ErrValidation)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, errors.Wrap(err, ErrEncryption)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, nil, errors.Wrap(err, ErrEncryption)
	}

	iv = make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, errors.Wrap(err, ErrEncryption)
	}

	ciphertext = gcm.Seal(nil, iv, plaintext, nil)
	return iv, ciphertext, nil
}

// AESDecrypt reverses AESEncrypt. An authentication failure (tampered
// ciphertext, wrong key, wrong IV) fails with ErrDecryption.
func AESDecrypt(ciphertext, iv, key []byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, errors.Wrap(ErrAESKeySize, ErrValidation)
	}
	if len(iv) != IVSize {
		return nil, errors.Wrap(ErrIVSize, ErrValidation)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, ErrDecryption)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, errors.Wrap(err, ErrDecryption)
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrDecryption, "AES-GCM open: %v", err)
	}
	return plaintext, nil
}
