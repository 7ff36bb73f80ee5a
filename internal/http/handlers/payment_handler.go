// Payment cancellation HTTP handlers.
//
// This file exposes the two-phase cancellation protocol plus a transaction
// lookup for the operator console:
//   - POST /payments/{id}/cancel     (issue phase, admin tier)
//   - POST /payments/cancel-result   (report phase, device or admin tier)
//   - GET  /payments/{id}            (operator lookup)
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
)

// PaymentService defines the cancellation coordinator operations consumed by
// HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type PaymentService interface {
	// IssueCancellation enqueues a cancel command for the transaction's kiosk.
	IssueCancellation(ctx context.Context, p auth.Principal, ref string) (*domain.Command, *domain.PaymentTransaction, error)
	// ReportResult applies a terminal-side cancellation outcome.
	ReportResult(ctx context.Context, p auth.Principal, r services.CancelReport) (services.CancelOutcome, error)
	// Get fetches a transaction by internal id.
	Get(ctx context.Context, p auth.Principal, id string) (*domain.PaymentTransaction, error)
}

//
// DTOs
//

// IssueCancellationResponse returns the correlation id the eventual result
// report must echo, alongside the resolved transaction.
type IssueCancellationResponse struct {
	CommandID   string                     `json:"command_id"`
	Transaction *domain.PaymentTransaction `json:"transaction"`
}

// CancelResultRequest is the outcome report sent after the kiosk ran the
// cancellation on its local terminal. Either payment_id or transaction_id
// must identify the transaction; command_id echoes the issued correlation id.
type CancelResultRequest struct {
	PaymentID     string `json:"payment_id"     example:"3f6bbacc-6d51-44b5-9f35-86c8719854b1"`
	TransactionID string `json:"transaction_id" example:"T2026083110153099"`
	CommandID     string `json:"command_id"     example:"0b7cdbde-43c3-4f3d-92b1-2cc9f34ee102"`
	Success       bool   `json:"success"`

	ApprovalNumber string `json:"approval_number" example:"30044431"`
	AuthDate       string `json:"auth_date"       example:"20260831"`
	AuthTime       string `json:"auth_time"       example:"101530"`

	ErrorMessage string `json:"error_message" example:"terminal timeout"`
}

// CancelResultResponse acknowledges a report. Status is "cancelled",
// "failed", or "already_handled" for benign replays and orphaned reports.
// On failure ErrorMessage echoes the terminal's message verbatim so the
// operator sees what the device saw.
type CancelResultResponse struct {
	Status       string                     `json:"status"`
	Transaction  *domain.PaymentTransaction `json:"transaction,omitempty"`
	ErrorMessage string                     `json:"error_message,omitempty"`
}

//
// Handlers
//

// IssueCancellation godoc
// @ID          issueCancellation
// @Summary     Request a payment cancellation
// @Description Resolves the transaction (internal id first, then external processor id) and enqueues a cancel_payment command for the kiosk holding the terminal. The response carries the correlation id; the outcome arrives later via the cancel-result report.
// @Tags        Payments
// @Produce     json
// @Param       id  path  string  true  "Payment id or external transaction id"
// @Success     202  {object}  handlers.IssueCancellationResponse
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Unknown transaction"
// @Router      /payments/{id}/cancel [post]
func (h *Handlers) IssueCancellation(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}

	cmd, txn, err := h.paySvc.IssueCancellation(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "admin role required")
		case errors.Is(err, services.ErrTransactionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "transaction not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusAccepted, IssueCancellationResponse{CommandID: cmd.ID, Transaction: txn})
}

// ReportCancellation godoc
// @ID          reportCancellation
// @Summary     Report a cancellation outcome
// @Description Applies the terminal's result. Success moves the transaction to cancelled with approval metadata stamped once; failure leaves it untouched; reports for missing or already-cancelled rows are acknowledged with status "already_handled".
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CancelResultRequest  true  "Cancellation outcome"
// @Success     200  {object}  handlers.CancelResultResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Router      /payments/cancel-result [post]
func (h *Handlers) ReportCancellation(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var req CancelResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.PaymentID) == "" && strings.TrimSpace(req.TransactionID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "payment_id or transaction_id is required")
		return
	}

	out, err := h.paySvc.ReportResult(c.Request.Context(), p, services.CancelReport{
		PaymentID:      strings.TrimSpace(req.PaymentID),
		TransactionID:  strings.TrimSpace(req.TransactionID),
		CommandID:      strings.TrimSpace(req.CommandID),
		Success:        req.Success,
		ApprovalNumber: req.ApprovalNumber,
		AuthDate:       req.AuthDate,
		AuthTime:       req.AuthTime,
		ErrorMessage:   req.ErrorMessage,
	})
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to report results")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		return
	}

	resp := CancelResultResponse{Transaction: out.Transaction}
	switch {
	case out.AlreadyHandled:
		resp.Status = StatusAlreadyHandled
	case req.Success:
		resp.Status = domain.PaymentCancelled
	default:
		resp.Status = domain.PaymentFailed
		resp.ErrorMessage = req.ErrorMessage
	}
	ok(c, http.StatusOK, resp)
}

// GetTransaction godoc
// @ID          getTransaction
// @Summary     Get a payment transaction
// @Tags        Payments
// @Produce     json
// @Param       id  path  string  true  "Payment id"
// @Success     200  {object}  domain.PaymentTransaction
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Unknown transaction"
// @Router      /payments/{id} [get]
func (h *Handlers) GetTransaction(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	txn, err := h.paySvc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "admin role required")
		case errors.Is(err, services.ErrTransactionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "transaction not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, txn)
}
