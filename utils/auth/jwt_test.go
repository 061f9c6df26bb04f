package auth

import (
	"testing"
	"time"
)

func testManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret-do-not-use-in-production",
		Expiry:        expiry,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "clinisim-test",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	manager := testManager(time.Hour)

	token, jti, err := manager.GenerateAccessToken(42, "clinician@example.com", "clinician", 3)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if jti == "" {
		t.Error("expected non-empty JTI")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "clinician@example.com" {
		t.Errorf("Email = %q, want clinician@example.com", claims.Email)
	}
	if claims.Role != "clinician" {
		t.Errorf("Role = %q, want clinician", claims.Role)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q, want access", claims.TokenType)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("TokenVersion = %d, want 3", claims.TokenVersion)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	manager := testManager(-time.Minute)

	token, _, err := manager.GenerateAccessToken(1, "user@example.com", "clinician", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expected validation error for expired token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	manager := testManager(time.Hour)
	other := NewJWTManager(JWTConfig{
		Secret: "completely-different-secret",
		Expiry: time.Hour,
		Issuer: "clinisim-test",
	})

	token, _, err := manager.GenerateAccessToken(1, "user@example.com", "clinician", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation error for token signed with a different secret")
	}
}

func TestRefreshTokenHasRefreshType(t *testing.T) {
	manager := testManager(time.Hour)

	token, _, err := manager.GenerateRefreshToken(7, "user@example.com", "educator", 1)
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("TokenType = %q, want refresh", claims.TokenType)
	}
}

func TestGetJTI(t *testing.T) {
	manager := testManager(time.Hour)

	token, jti, err := manager.GenerateAccessToken(1, "user@example.com", "admin", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	got, err := manager.GetJTI(token)
	if err != nil {
		t.Fatalf("GetJTI failed: %v", err)
	}
	if got != jti {
		t.Errorf("GetJTI = %q, want %q", got, jti)
	}
}
