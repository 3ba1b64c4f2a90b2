package votecrypt

import (
	"bytes"
	"testing"

	"github.com/phayes/errors"
)

func TestAESRoundTrip(t *testing.T) {
	key, err := GenerateAESKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != AESKeySize {
		t.Fatalf("expected a %d byte key, got %d bytes", AESKeySize, len(key))
	}

	plaintext := []byte(`{"voterId":"v1","candidateId":"c7"}`)
	iv, ciphertext, err := AESEncrypt(plaintext, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(iv) != IVSize {
		t.Fatalf("expected a %d byte IV, got %d bytes", IVSize, len(iv))
	}

	recovered, err := AESDecrypt(ciphertext, iv, key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Errorf("AES round trip failed")
	}
}

func TestAESFreshIVPerCall(t *testing.T) {
	key, err := GenerateAESKey()
	if err != nil {
		t.Fatal(err)
	}

	plaintext := []byte("the same vote, sealed twice")
	iv1, ct1, err := AESEncrypt(plaintext, key)
	if err != nil {
		t.Fatal(err)
	}
	iv2, ct2, err := AESEncrypt(plaintext, key)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(iv1, iv2) {
		t.Errorf("IV was reused across two encryptions under the same key")
	}
	if bytes.Equal(ct1, ct2) {
		t.Errorf("identical ciphertexts for two encryptions of the same plaintext")
	}
}

func TestAESDecryptTampered(t *testing.T) {
	key, _ := GenerateAESKey()
	iv, ciphertext, err := AESEncrypt([]byte("sealed ballot"), key)
	if err != nil {
		t.Fatal(err)
	}
	ciphertext[len(ciphertext)-1] ^= 0x01

	_, err = AESDecrypt(ciphertext, iv, key)
	if err == nil {
		t.Fatal("tampered ciphertext did not return error")
	}
	if !errors.IsA(err, ErrDecryption) {
		t.Errorf("expected a decryption error kind, got: %v", err)
	}
}

func TestAESBadKeyAndIVSizes(t *testing.T) {
	if _, _, err := AESEncrypt([]byte("x"), []byte("short")); !errors.IsA(err, ErrValidation) {
		t.Errorf("short key on encrypt: expected a validation error, got: %v", err)
	}
	key, _ := GenerateAESKey()
	if _, err := AESDecrypt([]byte("x"), []byte("badiv"), key); !errors.IsA(err, ErrValidation) {
		t.Errorf("short IV on decrypt: expected a validation error, got: %v", err)
	}
}
