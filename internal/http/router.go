// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Token authentication at the edge, capability checks in the services
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/stayport/go-kiosk-backend/internal/auth"
	"github.com/stayport/go-kiosk-backend/internal/config"
	"github.com/stayport/go-kiosk-backend/internal/domain"
	"github.com/stayport/go-kiosk-backend/internal/http/handlers"
	"github.com/stayport/go-kiosk-backend/internal/http/middleware"
	"github.com/stayport/go-kiosk-backend/internal/repo"
	"github.com/stayport/go-kiosk-backend/internal/services"
)

// commandRepoShim adapts the repository free functions to the
// services.CommandRepo interface expected by the CommandService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type commandRepoShim struct{}

// CreateCommand proxies repo.CreateCommand.
func (commandRepoShim) CreateCommand(ctx context.Context, db *gorm.DB, id, kioskID, kind, payload string) (*domain.Command, error) {
	return repo.CreateCommand(ctx, db, id, kioskID, kind, payload)
}

// ClaimPendingCommands proxies repo.ClaimPendingCommands.
func (commandRepoShim) ClaimPendingCommands(ctx context.Context, db *gorm.DB, kioskID string) ([]domain.Command, error) {
	return repo.ClaimPendingCommands(ctx, db, kioskID)
}

// GetKioskByDeviceUser proxies repo.GetKioskByDeviceUser.
func (commandRepoShim) GetKioskByDeviceUser(ctx context.Context, db *gorm.DB, deviceUserID string) (*domain.Kiosk, error) {
	return repo.GetKioskByDeviceUser(ctx, db, deviceUserID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured access logs, sensitive values scrubbed
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip for JSON list responses
//  8. Rate limiter (per user/IP)
//  9. CORS and security headers
//
// Authentication is mounted on the API group only, so /health, /metrics and
// the token endpoint stay reachable without a bearer token.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gw *auth.Gateway, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging with secrets and PII scrubbed
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress call-history and command-list payloads
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Provision-Key"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Provision-Key"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db
	cmdSvc := services.NewCommandService(db, commandRepoShim{})
	callSvc := &services.CallService{DB: db}
	paySvc := &services.PaymentService{DB: db}
	h := handlers.New(cmdSvc, callSvc, paySvc, gw, cfg.Auth.ProvisionKey)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Provisioning (gated by X-Provision-Key, not by bearer token)
		api.POST("/auth/token", h.IssueToken)
	}

	protected := api.Group("")
	protected.Use(middleware.Authenticate(gw))
	{
		// Commands
		protected.POST("/commands", h.EnqueueCommand)
		protected.POST("/commands/poll", h.PollCommands)

		// Calls
		protected.POST("/calls", h.InitiateCall)
		protected.POST("/calls/:id/accept", h.AcceptCall)
		protected.POST("/calls/:id/end", h.EndCall)
		protected.GET("/calls/waiting", h.ListWaitingCalls)
		protected.GET("/calls/active", h.GetActiveCall)
		protected.GET("/kiosks/:id/calls", h.ListKioskCalls)

		// Payments
		protected.POST("/payments/:id/cancel", h.IssueCancellation)
		protected.POST("/payments/cancel-result", h.ReportCancellation)
		protected.GET("/payments/:id", h.GetTransaction)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
