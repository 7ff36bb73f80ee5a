// Package services – PaymentService
//
// This file implements the payment cancellation coordinator, a two-phase
// protocol layered on the command queue. The issue phase enqueues a
// cancel_payment command for the kiosk holding the live terminal; the
// command's own id doubles as the correlation identifier. The report phase
// is a decoupled terminal notification: whenever (and if ever) the kiosk
// reports the terminal's outcome, the coordinator reacts by keying on the
// transaction and correlation identifiers alone. Nothing ever blocks waiting
// for a report.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayport/go-kiosk-backend/internal/auth"
	"github.com/stayport/go-kiosk-backend/internal/domain"
	"github.com/stayport/go-kiosk-backend/internal/repo"
)

// PaymentService coordinates remote payment cancellations.
type PaymentService struct {
	// DB is the database handle used for transaction lookups and updates.
	DB *gorm.DB
}

// cancelPayload is the JSON body of a cancel_payment command. The kiosk
// echoes CommandID back as the correlation id in its result report.
type cancelPayload struct {
	CommandID     string `json:"command_id"`
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
}

// CancelReport is the result the kiosk (or an operator performing a manual
// correction) sends after attempting the cancellation on the local terminal.
type CancelReport struct {
	PaymentID     string
	TransactionID string
	CommandID     string
	Success       bool

	// Success metadata from the terminal.
	ApprovalNumber string
	AuthDate       string
	AuthTime       string

	// Failure detail, echoed verbatim to the operator.
	ErrorMessage string
}

// CancelOutcome is what a report produced.
type CancelOutcome struct {
	// Transaction is the resolved row after the report was applied; nil when
	// the report referenced a row that no longer exists.
	Transaction *domain.PaymentTransaction
	// AlreadyHandled is true for benign replays: the row was missing or was
	// cancelled by an earlier round-trip.
	AlreadyHandled bool
}

// IssueCancellation starts the issue phase: it resolves the target
// transaction (internal id first, then external transaction id) and enqueues
// a cancel_payment command for the kiosk that owns the terminal. The returned
// command's id is the correlation identifier the eventual report must carry.
//
// The coordinator does not wait for the outcome; the device may be offline
// for minutes, or forever. Retrying is a fresh issue phase.
func (s *PaymentService) IssueCancellation(ctx context.Context, p auth.Principal, ref string) (*domain.Command, *domain.PaymentTransaction, error) {
	if !auth.Can(auth.OpIssueCancellation, p.Role) {
		return nil, nil, ErrForbidden
	}
	if strings.TrimSpace(ref) == "" {
		return nil, nil, ErrTransactionNotFound
	}

	txn, err := s.resolve(ctx, ref, ref)
	if err != nil {
		return nil, nil, err
	}
	if txn == nil {
		return nil, nil, ErrTransactionNotFound
	}

	commandID := uuid.NewString()
	body, err := json.Marshal(cancelPayload{
		CommandID:     commandID,
		PaymentID:     txn.ID,
		TransactionID: txn.TransactionID,
	})
	if err != nil {
		return nil, nil, err
	}
	cmd, err := repo.CreateCommand(ctx, s.DB, commandID, txn.KioskID, domain.CommandCancelPayment, string(body))
	if err != nil {
		return nil, nil, err
	}
	commandsEnqueued.WithLabelValues(domain.CommandCancelPayment).Inc()
	return cmd, txn, nil
}

// ReportResult applies a cancellation result report.
//
// Resolution precedence: internal payment id if present, else external
// transaction id. A report for a row that cannot be resolved is acknowledged
// as already handled rather than erroring the caller. The report is a
// terminal notification, not a request.
//
// On success the transaction moves to cancelled with the approval metadata
// stamped once; a replayed success against an already-cancelled row is a
// benign no-op. On failure the row is left untouched and the terminal's
// error message is surfaced to the operator; the coordinator never retries.
func (s *PaymentService) ReportResult(ctx context.Context, p auth.Principal, r CancelReport) (CancelOutcome, error) {
	if !auth.Can(auth.OpReportCancellation, p.Role) {
		return CancelOutcome{}, ErrForbidden
	}

	txn, err := s.resolve(ctx, r.PaymentID, r.TransactionID)
	if err != nil {
		return CancelOutcome{}, err
	}
	if txn == nil {
		cancellationReports.WithLabelValues("orphaned").Inc()
		return CancelOutcome{AlreadyHandled: true}, nil
	}

	if !r.Success {
		// Terminal-side failure: state is left as it was, error surfaced.
		cancellationReports.WithLabelValues("failure").Inc()
		return CancelOutcome{Transaction: txn}, nil
	}

	done, err := repo.MarkTransactionCancelled(ctx, s.DB, txn.ID, repo.CancelApproval{
		ApprovalNumber: r.ApprovalNumber,
		AuthDate:       r.AuthDate,
		AuthTime:       r.AuthTime,
	}, time.Now().UTC())
	if err != nil {
		return CancelOutcome{}, err
	}

	refreshed, err := repo.GetTransaction(ctx, s.DB, txn.ID)
	if err != nil {
		return CancelOutcome{}, err
	}
	if !done {
		cancellationReports.WithLabelValues("replay").Inc()
		return CancelOutcome{Transaction: refreshed, AlreadyHandled: true}, nil
	}
	cancellationReports.WithLabelValues("success").Inc()
	return CancelOutcome{Transaction: refreshed}, nil
}

// Get fetches a transaction for operator display.
func (s *PaymentService) Get(ctx context.Context, p auth.Principal, id string) (*domain.PaymentTransaction, error) {
	if !auth.Can(auth.OpGetTransaction, p.Role) {
		return nil, ErrForbidden
	}
	txn, err := repo.GetTransaction(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

// resolve finds a transaction by internal id first, then by the external
// processor id. Requires exactly one match by construction: both columns are
// keys. Returns (nil, nil) when neither resolves.
func (s *PaymentService) resolve(ctx context.Context, paymentID, transactionID string) (*domain.PaymentTransaction, error) {
	if strings.TrimSpace(paymentID) != "" {
		txn, err := repo.GetTransaction(ctx, s.DB, paymentID)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}
	if strings.TrimSpace(transactionID) != "" {
		txn, err := repo.GetTransactionByExternalID(ctx, s.DB, transactionID)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
