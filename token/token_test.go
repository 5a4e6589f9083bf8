package token

import (
	"errors"
	"testing"
	"time"

	"nimbusdrive/common"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret")

	signed, err := svc.IssueSession("user-1", "alice@example.com", "Alice", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession error: %v", err)
	}
	if signed == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := svc.VerifySession(signed)
	if err != nil {
		t.Fatalf("VerifySession error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if claims.Name != "Alice" {
		t.Errorf("Name = %q, want %q", claims.Name, "Alice")
	}
}

func TestCapabilityTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret")

	signed, err := svc.IssueCapability("user-1", "file-1", PurposeFileDownload, time.Hour)
	if err != nil {
		t.Fatalf("IssueCapability error: %v", err)
	}

	claims, err := svc.VerifyCapability(signed)
	if err != nil {
		t.Fatalf("VerifyCapability error: %v", err)
	}
	if claims.UserID != "user-1" || claims.FileID != "file-1" || claims.Purpose != PurposeFileDownload {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerify_Failures(t *testing.T) {
	svc := NewService("test-secret")
	other := NewService("other-secret")

	expiredSession, err := svc.IssueSession("user-1", "a@b.c", "A", -time.Minute)
	if err != nil {
		t.Fatalf("IssueSession error: %v", err)
	}
	wrongKey, err := other.IssueSession("user-1", "a@b.c", "A", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expiredSession},
		{"wrong secret", wrongKey},
		{"malformed", "not.a.token"},
		{"empty", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.VerifySession(tc.token); !errors.Is(err, common.ErrUnauthorized) {
				t.Errorf("VerifySession(%s) error = %v, want ErrUnauthorized", tc.name, err)
			}
			if _, err := svc.VerifyCapability(tc.token); !errors.Is(err, common.ErrUnauthorized) {
				t.Errorf("VerifyCapability(%s) error = %v, want ErrUnauthorized", tc.name, err)
			}
		})
	}
}

func TestVerify_FlavorIsolation(t *testing.T) {
	svc := NewService("test-secret")

	// Both flavors are HS256 under the same secret, so the audience is the
	// only thing keeping a share token from acting as a login. Each verifier
	// must reject the other flavor outright.
	capability, err := svc.IssueCapability("user-1", "file-1", PurposeFileDownload, time.Hour)
	if err != nil {
		t.Fatalf("IssueCapability error: %v", err)
	}
	session, err := svc.IssueSession("user-1", "a@b.c", "A", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession error: %v", err)
	}

	if _, err := svc.VerifySession(capability); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("VerifySession(capability token) error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.VerifyCapability(session); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("VerifyCapability(session token) error = %v, want ErrUnauthorized", err)
	}
}
