package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	otpCodeMin   = 100000
	otpCodeMax   = 999999
	otpCodeWidth = 6
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewOTPCode returns a uniformly distributed decimal code in [100000, 999999].
func NewOTPCode() (string, error) {
	return newOTPCodeFrom(rand.Reader)
}

func newOTPCodeFrom(r io.Reader) (string, error) {
	span := big.NewInt(otpCodeMax - otpCodeMin + 1)
	n, err := rand.Int(r, span)
	if err != nil {
		return "", err
	}

	code := fmt.Sprintf("%0*d", otpCodeWidth, n.Int64()+otpCodeMin)
	if len(code) != otpCodeWidth {
		return "", errors.New("invalid otp generation length")
	}
	return code, nil
}

// NewTokenID returns a random identifier for the jti claim.
func NewTokenID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewEntityID returns a sortable identifier of the form PREFIX-ULID.
func NewEntityID(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	entropyMu.Unlock()

	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// IsDigits reports whether s consists of exactly n ASCII digits.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
