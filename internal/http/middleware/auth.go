// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates requests against the identity gateway and makes
// the resulting principal available to handlers. Authorization (which role
// may call which operation) is not decided here: the services check the
// capability matrix against the explicit principal, keeping the matrix in
// one auditable place.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stayport/go-kiosk-backend/internal/auth"
)

const principalKey = "principal"

// TokenValidator is the slice of the identity gateway the middleware needs.
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// Authenticate returns a middleware that requires a valid bearer token and
// stores the verified principal in the Gin context. Requests without a
// well-formed, valid token are rejected with 401 before any handler runs.
func Authenticate(gw TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}
		p, err := gw.Validate(token)
		if err != nil {
			unauthorized(c)
			return
		}
		c.Set(principalKey, p)
		// Expose the user id for the rate limiter and access logs.
		c.Set("userID", p.UserID)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal stored by Authenticate.
// The second return is false when the request was not authenticated (e.g. a
// route mounted outside the protected group).
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <t>" header.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    "authentication required",
	})
}
