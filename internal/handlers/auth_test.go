package handlers

import "testing"

func TestHashTokenIsDeterministic(t *testing.T) {
	if hashToken("abc") != hashToken("abc") {
		t.Fatal("same input must hash to the same value")
	}
	if hashToken("abc") == hashToken("abd") {
		t.Fatal("different inputs must not collide trivially")
	}
	if len(hashToken("abc")) != 64 {
		t.Fatalf("expected hex sha256, got %q", hashToken("abc"))
	}
}

func TestGenerateRefreshStringIsRandom(t *testing.T) {
	first, err := generateRefreshString()
	if err != nil {
		t.Fatalf("generateRefreshString failed: %v", err)
	}
	second, err := generateRefreshString()
	if err != nil {
		t.Fatalf("generateRefreshString failed: %v", err)
	}
	if first == second {
		t.Fatal("refresh tokens must be unique")
	}
	if len(first) != 64 {
		t.Fatalf("expected 32 random bytes hex encoded, got %d chars", len(first))
	}
}
