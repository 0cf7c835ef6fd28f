package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager("secret", "FamilyTree", "FamilyTreeUsers")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, err := m.Issue("user-42", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	subject, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if subject != "user-42" {
		t.Errorf("expected subject user-42, got %q", subject)
	}
}

func TestParseRejects(t *testing.T) {
	m, _ := NewTokenManager("secret", "FamilyTree", "FamilyTreeUsers")
	otherSecret, _ := NewTokenManager("other", "FamilyTree", "FamilyTreeUsers")
	otherIssuer, _ := NewTokenManager("secret", "Someone", "FamilyTreeUsers")
	otherAudience, _ := NewTokenManager("secret", "FamilyTree", "Others")

	expired, _ := NewTokenManager("secret", "FamilyTree", "FamilyTreeUsers")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tokenFrom := func(src *TokenManager) string {
		token, err := src.Issue("user-42", time.Hour)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		return token
	}

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-42",
		Issuer:    "FamilyTree",
		Audience:  jwt.ClaimStrings{"FamilyTreeUsers"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", tokenFrom(otherSecret)},
		{"wrong issuer", tokenFrom(otherIssuer)},
		{"wrong audience", tokenFrom(otherAudience)},
		{"expired", tokenFrom(expired)},
		{"unsigned", noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", "FamilyTree", "FamilyTreeUsers"); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}
