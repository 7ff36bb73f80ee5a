// Command queue HTTP handlers.
//
// This file exposes the operator-facing enqueue endpoint and the
// device-facing poll-and-claim endpoint:
//   - POST /commands        (enqueue, admin tier)
//   - POST /commands/poll   (claim pending commands, device tier)
//
// Handlers are transport-thin: they validate input, call application
// services with the authenticated principal, and translate results into
// HTTP responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stayport/go-kiosk-backend/internal/auth"
	"github.com/stayport/go-kiosk-backend/internal/domain"
	"github.com/stayport/go-kiosk-backend/internal/http/middleware"
	"github.com/stayport/go-kiosk-backend/internal/services"
)

// CommandService defines the queue operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type CommandService interface {
	// Enqueue persists a new unprocessed command for a kiosk.
	Enqueue(ctx context.Context, p auth.Principal, kioskID, kind, payload string) (*domain.Command, error)
	// PollAndClaim claims every pending command for the caller's kiosk.
	PollAndClaim(ctx context.Context, p auth.Principal) ([]domain.Command, error)
}

// EnqueueCommandRequest is the JSON payload for dispatching a command.
type EnqueueCommandRequest struct {
	// KioskID targets the kiosk that will claim the command.
	KioskID string `json:"kiosk_id" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// Kind is one of: logout, reboot, cancel_payment, refresh_content.
	Kind string `json:"kind" binding:"required" example:"reboot"`
	// Payload is a free-form JSON document interpreted per command kind.
	Payload json.RawMessage `json:"payload"`
}

// EnqueueCommandResponse echoes the identifier of the persisted command.
type EnqueueCommandResponse struct {
	CommandID string `json:"command_id"`
}

// CommandDTO is the wire shape of one claimed command.
type CommandDTO struct {
	ID        string          `json:"id"`
	Command   string          `json:"command"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// PollCommandsResponse wraps the ordered list of claimed commands.
type PollCommandsResponse struct {
	Commands []CommandDTO `json:"commands"`
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for commands, call sessions, payments and
// token issuance. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	cmdSvc  CommandService
	callSvc CallService
	paySvc  PaymentService
	tokens  TokenIssuer

	// provisionKey gates the token endpoint; empty disables issuance.
	provisionKey string
}

// New constructs and returns a Handlers instance bound to the given services.
func New(cmdSvc CommandService, callSvc CallService, paySvc PaymentService, tokens TokenIssuer, provisionKey string) *Handlers {
	return &Handlers{
		cmdSvc:       cmdSvc,
		callSvc:      callSvc,
		paySvc:       paySvc,
		tokens:       tokens,
		provisionKey: provisionKey,
	}
}

// principal extracts the authenticated principal; requests reaching domain
// handlers always passed the Authenticate middleware, but the guard keeps
// direct handler tests honest.
func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return p, ok
}

// EnqueueCommand godoc
// @ID          enqueueCommand
// @Summary     Dispatch a command to a kiosk
// @Description Persists an unprocessed command that the target kiosk will claim on its next poll.
// @Tags        Commands
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.EnqueueCommandRequest  true  "Command to dispatch"
// @Success     201  {object}  handlers.EnqueueCommandResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Router      /commands [post]
func (h *Handlers) EnqueueCommand(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var req EnqueueCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kiosk_id and kind are required")
		return
	}

	cmd, err := h.cmdSvc.Enqueue(c.Request.Context(), p, req.KioskID, req.Kind, string(req.Payload))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "admin role required")
		case errors.Is(err, services.ErrMissingTarget), errors.Is(err, services.ErrUnknownCommandKind):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeEnqueueFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, EnqueueCommandResponse{CommandID: cmd.ID})
}

// PollCommands godoc
// @ID          pollCommands
// @Summary     Claim pending commands
// @Description Returns all unprocessed commands for the calling device's kiosk (oldest first) and marks them processed in the same step. A repeated poll never returns the same command twice.
// @Tags        Commands
// @Produce     json
// @Success     200  {object}  handlers.PollCommandsResponse
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "No kiosk bound to principal"
// @Router      /commands/poll [post]
func (h *Handlers) PollCommands(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}

	claimed, err := h.cmdSvc.PollAndClaim(c.Request.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "device role required")
		case errors.Is(err, services.ErrKioskNotBound):
			// Misconfiguration, distinct from the empty-queue success below.
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no kiosk bound to principal")
		default:
			fail(c, http.StatusInternalServerError, ErrCodePollFailed, err.Error())
		}
		return
	}

	out := PollCommandsResponse{Commands: make([]CommandDTO, 0, len(claimed))}
	for _, cmd := range claimed {
		out.Commands = append(out.Commands, CommandDTO{
			ID:        cmd.ID,
			Command:   cmd.Kind,
			Payload:   json.RawMessage(cmd.Payload),
			CreatedAt: cmd.CreatedAt,
		})
	}
	ok(c, http.StatusOK, out)
}
