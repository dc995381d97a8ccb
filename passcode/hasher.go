package passcode

import (
	"errors"
	"strings"
)

const minCodeBytes = 6

var (
	// ErrCodeTooShort is returned when a code shorter than six bytes is hashed.
	ErrCodeTooShort = errors.New("code must be at least 6 bytes")
	// ErrUnknownHashFormat is returned by Verify for hashes no hasher recognises.
	ErrUnknownHashFormat = errors.New("unknown hash format")
)

// Hasher hashes codes and compares candidates against stored hashes.
type Hasher interface {
	Hash(code string) (string, error)
	Verify(code, encodedHash string) (bool, error)
}

// Verify compares code against encodedHash using the algorithm named by the
// hash prefix. A mismatch returns (false, nil); malformed hashes return an error.
func Verify(code, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$"+algorithmID+"$"):
		return verifyArgon2(code, encodedHash)
	case isBcryptHash(encodedHash):
		return verifyBcrypt(code, encodedHash)
	default:
		return false, ErrUnknownHashFormat
	}
}

func checkCodeLength(code string) error {
	if len(code) < minCodeBytes {
		return ErrCodeTooShort
	}
	return nil
}
