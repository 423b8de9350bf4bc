package auth

import (
	"strings"
	"testing"
	"time"

	"thinkwise/models"

	"github.com/google/uuid"
)

func testUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		Email:     "ana@example.com",
		FirstName: "Ana",
		LastName:  "Ortiz",
	}
}

func TestTokenSigner_RoundTrip(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)
	user := testUser()

	token, err := signer.Sign(user, time.Now())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	userID, claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != user.ID {
		t.Errorf("Expected subject %s, got %s", user.ID, userID)
	}
	if claims.Email != user.Email || claims.FirstName != "Ana" {
		t.Errorf("Claims not round-tripped: %+v", claims)
	}
}

func TestTokenSigner_RejectsExpiredToken(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	token, err := signer.Sign(testUser(), time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, _, err := signer.Verify(token); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}

func TestTokenSigner_RejectsWrongSecret(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)
	other := NewTokenSigner("different-secret", time.Hour)

	token, err := signer.Sign(testUser(), time.Now())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, _, err := other.Verify(token); err == nil {
		t.Error("Expected token signed with another secret to be rejected")
	}
}

func TestTokenSigner_RejectsTamperedToken(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	token, err := signer.Sign(testUser(), time.Now())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("Unexpected token shape: %s", token)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, _, err := signer.Verify(tampered); err == nil {
		t.Error("Expected tampered token to be rejected")
	}

	if _, _, err := signer.Verify("not-a-token"); err == nil {
		t.Error("Expected garbage token to be rejected")
	}
}

func TestNewResetToken_HashDiffersFromRaw(t *testing.T) {
	raw, hash, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken failed: %v", err)
	}

	if raw == hash {
		t.Error("Raw token and storage hash must differ")
	}
	if HashResetToken(raw) != hash {
		t.Error("Hash must be reproducible from the raw token")
	}

	raw2, _, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken failed: %v", err)
	}
	if raw == raw2 {
		t.Error("Consecutive tokens must not repeat")
	}
}
