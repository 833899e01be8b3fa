package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// BackupCodeCount is the default batch size.
	BackupCodeCount = 10

	// BackupCodeDigits is the length of each code.
	BackupCodeDigits = 8
)

var backupCodeSpace = big.NewInt(100_000_000) // 10^BackupCodeDigits

// GenerateBackupCodes produces count independent single-use recovery
// codes, each an 8-digit decimal string drawn uniformly at random.
// Codes within a batch are not deduplicated; a collision simply yields
// a code that can be redeemed twice, which the consumption rule of
// removing exactly one match handles naturally.
func GenerateBackupCodes(count int) ([]string, error) {
	codes := make([]string, count)
	for i := range codes {
		n, err := rand.Int(rand.Reader, backupCodeSpace)
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = fmt.Sprintf("%0*d", BackupCodeDigits, n)
	}
	return codes, nil
}

// VerifyAndConsume checks submitted against the unused code set. On a
// match it returns true and a new set with exactly that one entry
// removed; the input slice is never mutated. On no match it returns
// false and the original set.
func VerifyAndConsume(codes []string, submitted string) (bool, []string) {
	for i, code := range codes {
		if constantTimeEqual(code, submitted) {
			remaining := make([]string, 0, len(codes)-1)
			remaining = append(remaining, codes[:i]...)
			remaining = append(remaining, codes[i+1:]...)
			return true, remaining
		}
	}
	return false, codes
}
