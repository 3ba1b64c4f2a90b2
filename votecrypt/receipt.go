package votecrypt

import (
	"crypto/rand"

	"github.com/phayes/errors"
)

const (
	// ReceiptCodeLength is the number of characters in a voter receipt code.
	// 16 characters over a 32 character alphabet gives 80 bits of entropy,
	// infeasible to enumerate but still human-transcribable.
	ReceiptCodeLength = 16

	// receiptAlphabet omits I, O, 0 and 1 to avoid transcription mistakes.
	// Its length divides 256 so modular mapping of random bytes is unbiased.
	receiptAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var ErrReceiptCode = errors.New("could not generate receipt code")

// GenerateReceiptCode returns a fresh unguessable receipt code.
func GenerateReceiptCode() (string, error) {
	raw := make([]byte, ReceiptCodeLength)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, ErrReceiptCode)
	}
	code := make([]byte, ReceiptCodeLength)
	for i, b := range raw {
		code[i] = receiptAlphabet[int(b)%len(receiptAlphabet)]
	}
	return string(code), nil
}

// ValidReceiptCode reports whether code has the shape of a receipt code.
// It says nothing about whether a sealed vote with this code exists.
func ValidReceiptCode(code string) bool {
	if len(code) != ReceiptCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		found := false
		for j := 0; j < len(receiptAlphabet); j++ {
			if code[i] == receiptAlphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
