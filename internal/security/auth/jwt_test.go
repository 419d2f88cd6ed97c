package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T, ttl time.Duration) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(testSecret, "training-system", ttl)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return tm
}

func testClaims() Claims {
	return Claims{
		CompanyID:   uuid.New().String(),
		CompanyName: "demo",
		LoginID:     "alice",
		Name:        "Alice",
		Email:       "alice@demo.example.com",
		Roles:       []string{"ADMIN", "TRAINER"},
	}
}

func TestRejectsShortKey(t *testing.T) {
	if _, err := NewTokenManager("too-short", "training-system", time.Hour); err == nil {
		t.Fatalf("expected short key to be rejected")
	}
}

func TestGenerateValidateRoundTrip(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	subject := uuid.New()
	in := testClaims()

	token, expiresAt, err := tm.Generate(subject, in)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	out, err := tm.Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	got, err := out.SubjectID()
	if err != nil {
		t.Fatalf("subject parse failed: %v", err)
	}
	if got != subject {
		t.Errorf("subject = %s, want %s", got, subject)
	}
	if out.CompanyID != in.CompanyID || out.CompanyName != in.CompanyName {
		t.Errorf("company claims did not round trip")
	}
	if out.LoginID != in.LoginID || out.Email != in.Email {
		t.Errorf("identity claims did not round trip")
	}
	if len(out.Roles) != 2 || out.Roles[0] != "ADMIN" || out.Roles[1] != "TRAINER" {
		t.Errorf("roles = %v, want [ADMIN TRAINER]", out.Roles)
	}
}

func TestExpiryBoundary(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return issued }

	token, expiresAt, err := tm.Generate(uuid.New(), testClaims())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !expiresAt.Equal(issued.Add(time.Hour)) {
		t.Fatalf("expiresAt = %v, want issued+1h", expiresAt)
	}

	// One second before expiry the token is still accepted.
	tm.now = func() time.Time { return expiresAt.Add(-time.Second) }
	if _, err := tm.Validate(token); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	// At the expiry instant it is rejected.
	tm.now = func() time.Time { return expiresAt }
	if _, err := tm.Validate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid at expiry instant, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	token, _, err := tm.Generate(uuid.New(), testClaims())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// Flip one character in the payload segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	payload := []byte(parts[1])
	mid := len(payload) / 2
	if payload[mid] == 'A' {
		payload[mid] = 'B'
	} else {
		payload[mid] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := tm.Validate(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered token, got %v", err)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	other, err := NewTokenManager("ffffffffffffffffffffffffffffffff", "training-system", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	token, _, err := tm.Generate(uuid.New(), testClaims())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := other.Validate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid under a different key, got %v", err)
	}
}

func TestClaimsVersionMismatchRejected(t *testing.T) {
	tm := newTestManager(t, time.Hour)

	// Sign a token carrying a foreign claims version with the same key.
	c := testClaims()
	c.Version = claimsVersion + 1
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		Issuer:    "training-system",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, err := tm.Validate(foreign); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign claims version, got %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc.def.ghi", "abc.def.ghi", false},
		{"", "", true},
		{"Bearer", "", true},
		{"Bearer ", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ExtractToken(%q) expected error", tt.header)
			}
			continue
		}
		if err != nil {
			t.Errorf("ExtractToken(%q) failed: %v", tt.header, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
