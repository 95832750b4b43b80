package security_test

import (
	"strings"
	"testing"

	"github.com/stocklane/stocklane/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("correct horse battery staple")

	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plain password")
	}

	if !security.CheckPassword(hash, "correct horse battery staple") {
		t.Error("round trip verification failed")
	}

	if security.CheckPassword(hash, "wrong password") {
		t.Error("wrong password verified against the digest")
	}
}

func TestCheckPasswordTruncatesLongInput(t *testing.T) {
	// bcrypt only sees the first 72 bytes, so two passwords sharing
	// that prefix must verify against the same digest
	long := strings.Repeat("a", 80)

	hash, err := security.HashPassword(long)

	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	samePrefix := strings.Repeat("a", 72) + "completely different tail"

	if !security.CheckPassword(hash, samePrefix) {
		t.Error("expected truncated inputs to verify")
	}

	if security.CheckPassword(hash, strings.Repeat("b", 80)) {
		t.Error("different prefix must not verify")
	}
}

func TestCheckPasswordMalformedDigest(t *testing.T) {
	if security.CheckPassword("not-a-bcrypt-hash", "anything") {
		t.Error("malformed digest must fail verification, not verify")
	}
}
