package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stayport/go-kiosk-backend/internal/domain"
)

func TestIssueValidate_RoundTrip(t *testing.T) {
	gw := NewGateway("test-secret", time.Hour)

	tok, err := gw.Issue(Principal{
		UserID:  "device-7",
		Role:    domain.RoleKiosk,
		KioskID: "k-1",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, err := gw.Validate(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p.UserID != "device-7" || p.Role != domain.RoleKiosk || p.KioskID != "k-1" {
		t.Fatalf("principal mismatch: %+v", p)
	}
	if !p.IsDeviceTier() || p.IsAdminTier() {
		t.Fatalf("role class mismatch for kiosk principal")
	}
}

func TestIssue_RejectsBadInput(t *testing.T) {
	gw := NewGateway("s", time.Hour)
	if _, err := gw.Issue(Principal{UserID: "", Role: domain.RoleManager}); err == nil {
		t.Fatalf("expected error for empty user id")
	}
	if _, err := gw.Issue(Principal{UserID: "u1", Role: "root"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestValidate_RejectsGarbageAndWrongSecret(t *testing.T) {
	gw := NewGateway("secret-a", time.Hour)

	if _, err := gw.Validate("not.a.token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}

	other := NewGateway("secret-b", time.Hour)
	tok, err := other.Issue(Principal{UserID: "u1", Role: domain.RoleManager, ProjectID: "p1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := gw.Validate(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestValidate_RejectsWrongSigningMethod(t *testing.T) {
	gw := NewGateway("secret", time.Hour)

	// Unsigned token with alg=none must never validate.
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := gw.Validate(s); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestValidate_RejectsExpired(t *testing.T) {
	gw := NewGateway("secret", -time.Minute)
	tok, err := gw.Issue(Principal{UserID: "u1", Role: domain.RoleSuperAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := gw.Validate(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
