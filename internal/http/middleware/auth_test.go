package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stayport/go-kiosk-backend/internal/auth"
	"github.com/stayport/go-kiosk-backend/internal/domain"
)

type stubValidator struct {
	p   auth.Principal
	err error
}

func (s stubValidator) Validate(string) (auth.Principal, error) { return s.p, s.err }

func Test_bearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		tok, ok := bearerToken(tc.header)
		if ok != tc.ok || tok != tc.token {
			t.Fatalf("bearerToken(%q) = %q,%v", tc.header, tok, ok)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(v TokenValidator) *gin.Engine {
		r := gin.New()
		r.Use(Authenticate(v))
		r.GET("/ping", func(c *gin.Context) {
			p, ok := PrincipalFrom(c)
			if !ok {
				t.Fatal("principal missing after Authenticate")
			}
			c.JSON(http.StatusOK, gin.H{"user": p.UserID})
		})
		return r
	}

	// No header -> 401
	{
		w := httptest.NewRecorder()
		newRouter(stubValidator{}).ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("no header -> %d", w.Code)
		}
	}

	// Invalid token -> 401
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("Authorization", "Bearer bad")
		newRouter(stubValidator{err: errors.New("invalid")}).ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("invalid token -> %d", w.Code)
		}
	}

	// Valid token -> principal and userID stored
	{
		p := auth.Principal{UserID: "mgr-1", Role: domain.RoleManager}
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("Authorization", "Bearer good")
		newRouter(stubValidator{p: p}).ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("valid token -> %d body=%s", w.Code, w.Body.String())
		}
	}
}

// End to end through the real gateway: a token issued by the gateway passes
// the middleware; one signed with a different secret does not.
func TestAuthenticate_RealGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gw := auth.NewGateway("test-secret", time.Hour)
	other := auth.NewGateway("other-secret", time.Hour)

	token, err := gw.Issue(auth.Principal{UserID: "device-7", Role: domain.RoleKiosk})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	foreign, err := other.Issue(auth.Principal{UserID: "device-7", Role: domain.RoleKiosk})
	if err != nil {
		t.Fatalf("issue foreign: %v", err)
	}

	r := gin.New()
	r.Use(Authenticate(gw))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("own token -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("foreign token -> %d", w.Code)
	}
}
