// Call session HTTP handlers.
//
// This file exposes the video-call lifecycle endpoints:
//   - POST /calls                    (initiate, kiosk or operator)
//   - POST /calls/{id}/accept        (pick up a waiting call)
//   - POST /calls/{id}/end           (hang up, idempotent)
//   - GET  /calls/waiting            (operator dashboard queue)
//   - GET  /calls/active             (the caller's own live call)
//   - GET  /kiosks/{id}/calls        (per-kiosk history, paginated)
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stayport/go-kiosk-backend/internal/auth"
	"github.com/stayport/go-kiosk-backend/internal/domain"
	"github.com/stayport/go-kiosk-backend/internal/services"
	"github.com/stayport/go-kiosk-backend/internal/utils"
)

// CallService defines the session lifecycle operations consumed by HTTP
// handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type CallService interface {
	// Initiate opens a new waiting session and returns it.
	Initiate(ctx context.Context, p auth.Principal, kioskID, projectID string) (*domain.CallSession, error)
	// Accept connects a waiting session to a staff member.
	Accept(ctx context.Context, p auth.Principal, sessionID, staffID string) (*domain.CallSession, error)
	// End terminates a session; replays are no-ops.
	End(ctx context.Context, p auth.Principal, sessionID, notes string) error
	// Waiting lists waiting sessions visible to the principal, oldest first.
	Waiting(ctx context.Context, p auth.Principal) ([]domain.CallSession, error)
	// Active returns the principal's own connected session.
	Active(ctx context.Context, p auth.Principal) (*domain.CallSession, error)
	// HistoryPage returns a page of a kiosk's sessions and the total count.
	HistoryPage(ctx context.Context, p auth.Principal, kioskID string, page, pageSize int) ([]domain.CallSession, int64, error)
}

//
// DTOs
//

// InitiateCallRequest is the JSON payload for opening a call. Kiosk callers
// leave it empty; operators name the kiosk they are cold-calling.
type InitiateCallRequest struct {
	KioskID   string `json:"kiosk_id"   example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	ProjectID string `json:"project_id" example:"proj-seoul-01"`
}

// AcceptCallRequest optionally overrides the staff member recorded on pickup;
// it defaults to the authenticated principal.
type AcceptCallRequest struct {
	StaffID string `json:"staff_id" example:"mgr-042"`
}

// EndCallRequest carries optional wrap-up notes recorded by the ending leg.
type EndCallRequest struct {
	Notes string `json:"notes" example:"guest located room card"`
}

// CallStatusResponse reports the authoritative session together with whether
// this request was the one that advanced the state machine.
type CallStatusResponse struct {
	// Status is "connected" for the winning accept and "already_handled"
	// for the losing side of a benign race.
	Status  string              `json:"status"`
	Session *domain.CallSession `json:"session,omitempty"`
}

// ListCallsResponse wraps a page of sessions and pagination information.
type ListCallsResponse struct {
	Calls      []domain.CallSession `json:"calls"`
	Pagination Pagination           `json:"pagination"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

//
// Handlers
//

// InitiateCall godoc
// @ID          initiateCall
// @Summary     Open a new call session
// @Description Creates a waiting session with a fresh signaling room. Kiosk callers are bound to their own kiosk; operators must name a target kiosk.
// @Tags        Calls
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.InitiateCallRequest  false  "Call target (operators only)"
// @Success     201  {object}  domain.CallSession
// @Failure     400  {object}  handlers.ErrorResponse "Missing target kiosk"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Router      /calls [post]
func (h *Handlers) InitiateCall(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var req InitiateCallRequest
	// Body is optional for kiosk callers.
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	session, err := h.callSvc.Initiate(c.Request.Context(), p, strings.TrimSpace(req.KioskID), strings.TrimSpace(req.ProjectID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to open calls")
		case errors.Is(err, services.ErrMissingTarget):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kiosk_id is required")
		case errors.Is(err, services.ErrKioskNotBound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no kiosk bound to principal")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCallFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, session)
}

// AcceptCall godoc
// @ID          acceptCall
// @Summary     Accept a waiting call
// @Description Connects the session to the accepting staff member. When another operator picked up first the response is 200 with status "already_handled" and the authoritative session.
// @Tags        Calls
// @Accept      json
// @Produce     json
// @Param       id    path  string                      true   "Session ID"
// @Param       body  body  handlers.AcceptCallRequest  false  "Optional staff override"
// @Success     200  {object}  handlers.CallStatusResponse
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Unknown session"
// @Router      /calls/{id}/accept [post]
func (h *Handlers) AcceptCall(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var req AcceptCallRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	session, err := h.callSvc.Accept(c.Request.Context(), p, c.Param("id"), strings.TrimSpace(req.StaffID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCallAlreadyHandled):
			// Benign race: someone else answered. Success-shaped so the
			// losing dashboard simply refreshes.
			ok(c, http.StatusOK, CallStatusResponse{Status: StatusAlreadyHandled, Session: session})
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to accept calls")
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "call session not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCallFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, CallStatusResponse{Status: domain.CallConnected, Session: session})
}

// EndCall godoc
// @ID          endCall
// @Summary     End a call session
// @Description Moves the session to ended, stamping the end time once. Ending an already-ended session succeeds without changing anything.
// @Tags        Calls
// @Accept      json
// @Produce     json
// @Param       id    path  string                   true   "Session ID"
// @Param       body  body  handlers.EndCallRequest  false  "Optional wrap-up notes"
// @Success     204  "Ended"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Unknown session"
// @Router      /calls/{id}/end [post]
func (h *Handlers) EndCall(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var req EndCallRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	err := h.callSvc.End(c.Request.Context(), p, c.Param("id"), strings.TrimSpace(req.Notes))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to end calls")
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "call session not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCallFailed, err.Error())
		}
		return
	}
	noContent(c)
}

// ListWaitingCalls godoc
// @ID          listWaitingCalls
// @Summary     List waiting calls
// @Description Returns the waiting sessions visible to the operator, oldest first. Managers see their own project; super admins see everything.
// @Tags        Calls
// @Produce     json
// @Success     200  {array}   domain.CallSession
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Router      /calls/waiting [get]
func (h *Handlers) ListWaitingCalls(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	sessions, err := h.callSvc.Waiting(c.Request.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to list calls")
		case errors.Is(err, services.ErrProjectNotBound):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "no project bound to principal")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCallFailed, err.Error())
		}
		return
	}
	if sessions == nil {
		sessions = []domain.CallSession{}
	}
	ok(c, http.StatusOK, sessions)
}

// GetActiveCall godoc
// @ID          getActiveCall
// @Summary     Get the caller's live call
// @Description Returns the connected session the operator is currently on, or 404 when they are not on a call.
// @Tags        Calls
// @Produce     json
// @Success     200  {object}  domain.CallSession
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "No active call"
// @Router      /calls/active [get]
func (h *Handlers) GetActiveCall(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	session, err := h.callSvc.Active(c.Request.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to query calls")
		case errors.Is(err, services.ErrNoActiveCall):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no active call")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCallFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, session)
}

// ListKioskCalls godoc
// @ID          listKioskCalls
// @Summary     List a kiosk's call history (paginated)
// @Description Returns a page of the kiosk's sessions, most recent first.
// @Tags        Calls
// @Produce     json
// @Param       id         path   string  true   "Kiosk ID"
// @Param       page       query  int     false  "Page number (1-based)"
// @Param       page_size  query  int     false  "Page size (max 100)"
// @Success     200  {object}  handlers.ListCallsResponse
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Router      /kiosks/{id}/calls [get]
func (h *Handlers) ListKioskCalls(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.callSvc.HistoryPage(c.Request.Context(), p, c.Param("id"), page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to list call history")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCallFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.CallSession{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListCallsResponse{
		Calls: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
