package votecrypt

import (
	"crypto/sha256"
	"encoding/hex"
)

// KeyFingerprintLength is the number of hex characters kept when a key is
// fingerprinted for storage. Integrity checks recompute fingerprints with
// this same truncation, so it must never change for a live deployment.
const KeyFingerprintLength = 16

// Fingerprint returns the hex encoded SHA256 of the given bytes.
func Fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first n characters of Fingerprint(b).
func ShortFingerprint(b []byte, n int) string {
	fp := Fingerprint(b)
	if n > len(fp) {
		n = len(fp)
	}
	return fp[:n]
}

// KeyFingerprint is the fingerprint form used to pin records to key material.
func KeyFingerprint(b []byte) string {
	return ShortFingerprint(b, KeyFingerprintLength)
}
