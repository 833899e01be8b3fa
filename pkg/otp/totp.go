// Package otp implements the second-factor primitives used by login:
// time-based one-time passwords (RFC 4226 / RFC 6238), the Base32
// presentation of shared secrets, and single-use backup codes.
//
// Secrets and codes handled here are sensitive; callers must keep them
// out of logs and responses beyond the initial enrollment display.
package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/url"
	"time"
)

const (
	// SecretSize is the shared key size in bytes (160 bits, the
	// standard HOTP key size).
	SecretSize = 20

	// Digits is the length of a generated code.
	Digits = 6

	// Period is the time-step length in seconds.
	Period = 30

	// DefaultWindow is the number of adjacent time steps tolerated on
	// either side during verification, absorbing ±30s of clock skew.
	DefaultWindow = 1
)

// GenerateSecret returns a new cryptographically random shared secret.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return secret, nil
}

// ProvisioningURI formats an otpauth:// URI for the given secret,
// suitable for QR rendering and manual entry in authenticator apps.
func ProvisioningURI(secret []byte, account, issuer string) string {
	return fmt.Sprintf(
		"otpauth://totp/%s:%s?secret=%s&issuer=%s&algorithm=SHA1&digits=%d&period=%d",
		url.PathEscape(issuer),
		url.PathEscape(account),
		EncodeBase32(secret),
		url.QueryEscape(issuer),
		Digits,
		Period,
	)
}

// Verify checks a submitted code against the secret, accepting codes
// from time steps now-window through now+window. Submissions that are
// not exactly six ASCII digits are rejected before any HMAC work.
func Verify(secret []byte, code string, window int) bool {
	return verifyAt(secret, code, time.Now(), window)
}

func verifyAt(secret []byte, code string, t time.Time, window int) bool {
	if !isDigits(code) {
		return false
	}
	ok := false
	for step := -window; step <= window; step++ {
		// Evaluate every candidate so attempt timing does not depend
		// on which step matched.
		if constantTimeEqual(codeAt(secret, t, step), code) {
			ok = true
		}
	}
	return ok
}

// codeAt derives the code for the time step containing t, offset by
// step intervals. This is HOTP (RFC 4226) over counter = t/Period+step:
// HMAC-SHA1 of the 8-byte big-endian counter, dynamically truncated to
// a 31-bit integer, reduced mod 10^6 and zero-padded.
func codeAt(secret []byte, t time.Time, step int) string {
	counter := t.Unix()/Period + int64(step)

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", Digits, value%1_000_000)
}

func isDigits(s string) bool {
	if len(s) != Digits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// constantTimeEqual compares two equal-length strings without
// short-circuiting, so timing does not reveal how many leading
// characters matched. Length mismatches are rejected outright.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := 0; i < len(a); i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
