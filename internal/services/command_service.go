// Package services – CommandService
//
// This file implements the command dispatch queue. Operators enqueue control
// commands for a specific kiosk; the kiosk claims them on its next poll. The
// queue delivers each command at most once: claiming and marking processed
// happen in the same logical step, and a claimed command is never re-issued
// by the core. Re-issuing after a lost delivery is an explicit operator
// action, which is why repeated enqueues intentionally create distinct rows.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/stayport/go-kiosk-backend/internal/auth"
	"github.com/stayport/go-kiosk-backend/internal/domain"
	"github.com/stayport/go-kiosk-backend/internal/repo"
)

// CommandRepo defines the repository contract required by CommandService.
type CommandRepo interface {
	// CreateCommand inserts a new unprocessed command row.
	CreateCommand(ctx context.Context, db *gorm.DB, id, kioskID, kind, payload string) (*domain.Command, error)

	// ClaimPendingCommands atomically claims every unprocessed command for a
	// kiosk, oldest first.
	ClaimPendingCommands(ctx context.Context, db *gorm.DB, kioskID string) ([]domain.Command, error)

	// GetKioskByDeviceUser resolves the kiosk bound to a device principal.
	GetKioskByDeviceUser(ctx context.Context, db *gorm.DB, deviceUserID string) (*domain.Kiosk, error)
}

// CommandService provides the operator-facing enqueue operation and the
// device-facing poll-and-claim operation.
type CommandService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the command repository used by this service.
	Repo CommandRepo
}

// NewCommandService constructs a CommandService.
func NewCommandService(db *gorm.DB, r CommandRepo) *CommandService {
	return &CommandService{DB: db, Repo: r}
}

// Enqueue persists a new unprocessed command addressed to kioskID and returns
// it. Requires an admin-tier principal; the target kiosk id and a known
// command kind are mandatory. The queue enforces no dedup key: retrying an
// enqueue is an explicit administrative action and creates a distinct command.
func (s *CommandService) Enqueue(ctx context.Context, p auth.Principal, kioskID, kind, payload string) (*domain.Command, error) {
	if !auth.Can(auth.OpEnqueueCommand, p.Role) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(kioskID) == "" {
		return nil, ErrMissingTarget
	}
	if !domain.ValidCommandKind(kind) {
		return nil, ErrUnknownCommandKind
	}

	cmd, err := s.Repo.CreateCommand(ctx, s.DB, "", kioskID, kind, payload)
	if err != nil {
		return nil, err
	}
	commandsEnqueued.WithLabelValues(kind).Inc()
	return cmd, nil
}

// PollAndClaim returns every outstanding command for the calling device's
// kiosk in creation order and marks them processed in the same step.
//
// The kiosk is resolved from the principal's device binding, never from a
// client-supplied id, so a device cannot poll another kiosk's queue. An empty
// queue returns an empty slice; a principal with no kiosk binding returns
// ErrKioskNotBound so the caller can tell misconfiguration from idle.
func (s *CommandService) PollAndClaim(ctx context.Context, p auth.Principal) ([]domain.Command, error) {
	if !auth.Can(auth.OpPollCommands, p.Role) {
		return nil, ErrForbidden
	}

	kiosk, err := s.Repo.GetKioskByDeviceUser(ctx, s.DB, p.UserID)
	if err != nil {
		if err == repo.ErrNotFound || err == gorm.ErrRecordNotFound {
			return nil, ErrKioskNotBound
		}
		return nil, err
	}

	claimed, err := s.Repo.ClaimPendingCommands(ctx, s.DB, kiosk.ID)
	if err != nil {
		return nil, err
	}
	commandsClaimed.Add(float64(len(claimed)))
	return claimed, nil
}
