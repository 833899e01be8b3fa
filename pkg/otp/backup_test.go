package otp

import (
	"testing"
)

func TestGenerateBackupCodes(t *testing.T) {
	codes, err := GenerateBackupCodes(BackupCodeCount)
	if err != nil {
		t.Fatalf("GenerateBackupCodes() error = %v", err)
	}
	if len(codes) != BackupCodeCount {
		t.Fatalf("got %d codes, want %d", len(codes), BackupCodeCount)
	}
	for _, code := range codes {
		if len(code) != BackupCodeDigits {
			t.Errorf("code %q has length %d, want %d", code, len(code), BackupCodeDigits)
		}
		for i := 0; i < len(code); i++ {
			if code[i] < '0' || code[i] > '9' {
				t.Errorf("code %q contains non-digit character", code)
				break
			}
		}
	}
}

func TestVerifyAndConsume_SingleUse(t *testing.T) {
	codes := []string{"11111111", "22222222", "33333333"}

	ok, remaining := VerifyAndConsume(codes, "22222222")
	if !ok {
		t.Fatal("expected match for 22222222")
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %v, want 2 entries", remaining)
	}
	if remaining[0] != "11111111" || remaining[1] != "33333333" {
		t.Errorf("remaining = %v, want [11111111 33333333]", remaining)
	}

	// Resubmitting the consumed code against the new set fails.
	ok, again := VerifyAndConsume(remaining, "22222222")
	if ok {
		t.Error("consumed code was accepted a second time")
	}
	if len(again) != 2 {
		t.Errorf("set changed on failed match: %v", again)
	}
}

func TestVerifyAndConsume_NoMatch(t *testing.T) {
	codes := []string{"11111111", "22222222"}
	ok, remaining := VerifyAndConsume(codes, "99999999")
	if ok {
		t.Error("expected no match")
	}
	if len(remaining) != 2 {
		t.Errorf("set changed on no match: %v", remaining)
	}
}

func TestVerifyAndConsume_DuplicateRemovesOne(t *testing.T) {
	// Batches may contain duplicates; consumption removes exactly one
	// match, leaving the twin redeemable.
	codes := []string{"55555555", "55555555"}

	ok, remaining := VerifyAndConsume(codes, "55555555")
	if !ok || len(remaining) != 1 || remaining[0] != "55555555" {
		t.Fatalf("first consume: ok=%v remaining=%v", ok, remaining)
	}

	ok, remaining = VerifyAndConsume(remaining, "55555555")
	if !ok || len(remaining) != 0 {
		t.Fatalf("second consume: ok=%v remaining=%v", ok, remaining)
	}
}

func TestVerifyAndConsume_DoesNotMutateInput(t *testing.T) {
	codes := []string{"11111111", "22222222", "33333333"}
	VerifyAndConsume(codes, "11111111")
	if codes[0] != "11111111" || codes[1] != "22222222" || codes[2] != "33333333" {
		t.Errorf("input slice was mutated: %v", codes)
	}
}

func TestVerifyAndConsume_EmptySet(t *testing.T) {
	ok, remaining := VerifyAndConsume(nil, "12345678")
	if ok || len(remaining) != 0 {
		t.Errorf("VerifyAndConsume(nil) = %v, %v", ok, remaining)
	}
}
