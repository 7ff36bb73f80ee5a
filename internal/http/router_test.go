package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stayport/go-kiosk-backend/internal/auth"
	"github.com/stayport/go-kiosk-backend/internal/config"
	"github.com/stayport/go-kiosk-backend/internal/domain"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Kiosk{}, &domain.Command{}, &domain.CallSession{}, &domain.PaymentTransaction{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   100,
		CORS:        config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Auth: config.AuthConfig{
			JWTSecret:    "router-test-secret",
			TokenTTL:     time.Hour,
			ProvisionKey: "prov-key",
		},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *auth.Gateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	db := newTestDB(t)
	gw := auth.NewGateway(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	RegisterRoutes(r, db, gw, cfg)
	return r, db, gw
}

func TestRegisterRoutes_HealthMetricsFallbacks(t *testing.T) {
	r, _, _ := newTestRouter(t)

	// /health works and carries the allow-all CORS header.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "identity")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// Unknown route -> JSON 404 envelope.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope = %d", w.Code)
	}

	// Wrong method -> 405.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE /health = %d", w.Code)
	}
}

func TestRegisterRoutes_APIRequiresToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/calls/waiting", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated API call = %d", w.Code)
	}
}

// Full provisioning round trip: mint a token over HTTP, then use it against a
// protected endpoint end to end through the whole middleware chain.
func TestRegisterRoutes_EndToEnd(t *testing.T) {
	r, db, _ := newTestRouter(t)

	// Bind a kiosk for the device principal.
	kiosk := &domain.Kiosk{ID: "k-1", ProjectID: "p1", Name: "Lobby", DeviceUserID: "device-7"}
	if err := db.Create(kiosk).Error; err != nil {
		t.Fatalf("seed kiosk: %v", err)
	}

	issue := func(body string) string {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewBufferString(body))
		req.Header.Set("X-Provision-Key", "prov-key")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("token issue = %d body=%s", w.Code, w.Body.String())
		}
		var out struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("token json: %v", err)
		}
		return out.Token
	}

	adminTok := issue(`{"user_id":"root","role":"super_admin"}`)
	deviceTok := issue(`{"user_id":"device-7","role":"kiosk","kiosk_id":"k-1"}`)

	// Admin enqueues a reboot for the kiosk.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands",
		bytes.NewBufferString(`{"kiosk_id":"k-1","kind":"reboot"}`))
	req.Header.Set("Authorization", "Bearer "+adminTok)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("enqueue = %d body=%s", w.Code, w.Body.String())
	}

	// Device polls and claims it.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/commands/poll", nil)
	req.Header.Set("Authorization", "Bearer "+deviceTok)
	req.Header.Set("Accept-Encoding", "identity")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("poll = %d body=%s", w.Code, w.Body.String())
	}
	var poll struct {
		Commands []struct {
			Command string `json:"command"`
		} `json:"commands"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &poll); err != nil {
		t.Fatalf("poll json: %v", err)
	}
	if len(poll.Commands) != 1 || poll.Commands[0].Command != domain.CommandReboot {
		t.Fatalf("claimed commands: %+v", poll.Commands)
	}

	// A second poll comes back empty: the claim marked the command processed.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/commands/poll", nil)
	req.Header.Set("Authorization", "Bearer "+deviceTok)
	req.Header.Set("Accept-Encoding", "identity")
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &poll); err != nil {
		t.Fatalf("repoll json: %v", err)
	}
	if len(poll.Commands) != 0 {
		t.Fatalf("repoll must be empty, got %+v", poll.Commands)
	}

	// Device opens a call, admin sees it waiting and accepts it.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/calls", nil)
	req.Header.Set("Authorization", "Bearer "+deviceTok)
	req.Header.Set("Accept-Encoding", "identity")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("initiate = %d body=%s", w.Code, w.Body.String())
	}
	var session domain.CallSession
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("session json: %v", err)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/calls/"+session.ID+"/accept", nil)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	req.Header.Set("Accept-Encoding", "identity")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("accept = %d body=%s", w.Code, w.Body.String())
	}
}
