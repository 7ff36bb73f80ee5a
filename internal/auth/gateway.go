// Package auth implements the session/identity gateway and the authorization
// matrix for the kiosk coordination API.
//
// The gateway mints and validates HS256 tokens carrying the principal's user
// id, role, and bindings (kiosk for device principals, project for managers).
// The rest of the application treats the resulting Principal as an opaque,
// already-verified identity: role claims are trusted verbatim, matching the
// upstream identity provider contract.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stayport/go-kiosk-backend/internal/domain"
)

// Principal is the authenticated identity every core operation receives
// explicitly. KioskID is set only for device-tier principals; ProjectID is
// set for managers to scope call discovery.
type Principal struct {
	UserID    string
	Role      string
	KioskID   string
	ProjectID string
}

// IsAdminTier reports whether the principal belongs to the admin role class.
func (p Principal) IsAdminTier() bool {
	return p.Role == domain.RoleManager || p.Role == domain.RoleSuperAdmin
}

// IsDeviceTier reports whether the principal is a kiosk device.
func (p Principal) IsDeviceTier() bool {
	return p.Role == domain.RoleKiosk
}

// Gateway issues and validates bearer tokens. It is the local half of the
// identity collaborator; token verification never touches the database.
type Gateway struct {
	secret []byte
	ttl    time.Duration
}

// NewGateway constructs a Gateway with the given HMAC secret and token TTL.
func NewGateway(secret string, ttl time.Duration) *Gateway {
	return &Gateway{secret: []byte(secret), ttl: ttl}
}

// ErrInvalidToken is returned when a token fails parsing, signature
// verification, or carries no subject.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	KioskID   string `json:"kiosk_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}

// Issue mints a signed token for the given principal fields.
func (g *Gateway) Issue(p Principal) (string, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return "", errors.New("user id required")
	}
	if !KnownRole(p.Role) {
		return "", errors.New("unknown role")
	}
	now := time.Now().UTC()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
		Role:      p.Role,
		KioskID:   p.KioskID,
		ProjectID: p.ProjectID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(g.secret)
}

// Validate parses and verifies token and returns the embedded principal.
// Only HS256 is accepted; any parse or signature failure maps to
// ErrInvalidToken.
func (g *Gateway) Validate(token string) (Principal, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	c := &claims{}
	parsed, err := parser.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	if c.Subject == "" || !KnownRole(c.Role) {
		return Principal{}, ErrInvalidToken
	}
	return Principal{
		UserID:    c.Subject,
		Role:      c.Role,
		KioskID:   c.KioskID,
		ProjectID: c.ProjectID,
	}, nil
}

// KnownRole reports whether role is one of the roles the gateway issues.
func KnownRole(role string) bool {
	switch role {
	case domain.RoleKiosk, domain.RoleManager, domain.RoleSuperAdmin:
		return true
	}
	return false
}
