package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	id := uuid.New()

	tok, err := tokens.Issue(id, "trader")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	claims, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.AccountID != id.String() || claims.Username != "trader" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyExpired(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := tokens.Issue(uuid.New(), "trader")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	tokens.now = time.Now
	if _, err := tokens.Verify(tok); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, _ := NewTokens(testSecret, time.Hour).Issue(uuid.New(), "trader")
	if _, err := NewTokens(strings.Repeat("x", 32), time.Hour).Verify(tok); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{AccountID: uuid.New().String(), Username: "trader"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokens(testSecret, time.Hour).Verify(tok); err == nil {
		t.Fatal("expected HS512 token to be rejected")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if ok, err := CheckPassword(hash, "s3cret-pass"); !ok || err != nil {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	if ok, err := CheckPassword(hash, "wrong"); ok || err != nil {
		t.Fatalf("expected clean mismatch, got ok=%v err=%v", ok, err)
	}
	if _, err := CheckPassword("not-a-hash", "x"); err == nil {
		t.Fatal("expected malformed hash error")
	}
}

func TestNewResetToken(t *testing.T) {
	a, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken returned error: %v", err)
	}
	b, _ := NewResetToken()
	if a == b {
		t.Fatal("expected distinct tokens")
	}
	if len(a) != 43 || strings.ContainsAny(a, "+/=") {
		t.Fatalf("expected 43 url-safe characters, got %q", a)
	}
}
