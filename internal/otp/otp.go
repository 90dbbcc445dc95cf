/**
 * @description
 * Time-based one-time code generation and verification for email ownership
 * checks during registration. Codes are six digits derived from a per-request
 * random secret over a 300-second period.
 *
 * @dependencies
 * - github.com/pquerna/otp: RFC 6238 TOTP implementation.
 */

package otp

import (
	"crypto/rand"
	"encoding/base32"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Period is the TOTP bucket size in seconds. A code is valid for the
// 300-second bucket it was generated in, not a rolling five minutes.
const Period = 300

var validateOpts = totp.ValidateOpts{
	Period:    Period,
	Skew:      1, // tolerate one bucket boundary inside the absolute expiry budget
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// NewSecret returns a fresh random base32 shared secret.
func NewSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// CodeAt derives the six-digit code for a secret at the given time.
func CodeAt(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, validateOpts)
}

// Verify reports whether input matches the code for secret at the given time.
// Malformed secrets simply fail verification.
func Verify(input, secret string, t time.Time) bool {
	ok, err := totp.ValidateCustom(input, secret, t, validateOpts)
	return err == nil && ok
}
