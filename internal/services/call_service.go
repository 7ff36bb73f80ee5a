// Package services – CallService
//
// This file implements the call session state machine shared by kiosks and
// operators. A session starts in waiting, is picked up into connected by
// exactly one staff member, and ends exactly once; ended is terminal. Both
// legs advance the machine through conditional updates against the session
// row, so disconnects and racing requests converge on the same state without
// any in-process coordination.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayport/go-kiosk-backend/internal/auth"
	"github.com/stayport/go-kiosk-backend/internal/domain"
	"github.com/stayport/go-kiosk-backend/internal/repo"
)

// CallService implements the call session lifecycle and discovery queries.
type CallService struct {
	// DB is the database handle used for all session operations.
	DB *gorm.DB
}

// Initiate creates a new waiting session with a freshly generated signaling
// room name and returns it.
//
// A kiosk principal always calls on its own behalf: the kiosk and project are
// resolved from its device binding, so a device cannot open a call for
// another kiosk. An admin-tier principal cold-calls the kiosk named by
// kioskID/projectID. The caller type recorded on the session drives
// notification routing (kiosk-initiated calls alert super admins;
// manager-initiated calls ring the targeted kiosk).
func (s *CallService) Initiate(ctx context.Context, p auth.Principal, kioskID, projectID string) (*domain.CallSession, error) {
	if !auth.Can(auth.OpInitiateCall, p.Role) {
		return nil, ErrForbidden
	}

	callerType := domain.CallerManager
	if p.IsDeviceTier() {
		kiosk, err := repo.GetKioskByDeviceUser(ctx, s.DB, p.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrKioskNotBound
			}
			return nil, err
		}
		kioskID = kiosk.ID
		projectID = kiosk.ProjectID
		callerType = domain.CallerKiosk
	}
	if kioskID == "" {
		return nil, ErrMissingTarget
	}

	session := &domain.CallSession{
		ID:         uuid.NewString(),
		KioskID:    kioskID,
		ProjectID:  projectID,
		RoomName:   "room-" + uuid.NewString(),
		CallerType: callerType,
		StartedAt:  time.Now().UTC(),
	}
	if err := repo.CreateSession(ctx, s.DB, session); err != nil {
		return nil, err
	}
	callsInitiated.WithLabelValues(callerType).Inc()
	return session, nil
}

// Accept connects a waiting session to the accepting staff member.
//
// The pickup is a conditional update keyed on "status is still waiting", so
// concurrent accepts resolve to exactly one winner. The loser receives
// ErrCallAlreadyHandled, which callers treat as "someone else picked up",
// never as a hard failure. staffID defaults to the principal's user id when
// empty.
func (s *CallService) Accept(ctx context.Context, p auth.Principal, sessionID, staffID string) (*domain.CallSession, error) {
	if !auth.Can(auth.OpAcceptCall, p.Role) {
		return nil, ErrForbidden
	}
	if staffID == "" {
		staffID = p.UserID
	}

	won, err := repo.AcceptSession(ctx, s.DB, sessionID, staffID)
	if err != nil {
		return nil, err
	}
	session, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !won {
		return session, ErrCallAlreadyHandled
	}
	callsAccepted.Inc()
	return session, nil
}

// End moves a session to ended, stamping ended_at with the first end time
// only. Ending an already-ended session is a no-op, not an error, because
// both call legs may race to hang up. Optional notes are recorded by the
// winning end.
func (s *CallService) End(ctx context.Context, p auth.Principal, sessionID, notes string) error {
	if !auth.Can(auth.OpEndCall, p.Role) {
		return ErrForbidden
	}

	ended, err := repo.EndSession(ctx, s.DB, sessionID, notes, time.Now().UTC())
	if err != nil {
		return err
	}
	if ended {
		callsEnded.Inc()
		return nil
	}
	// No transition happened: either the session is already ended (benign
	// replay) or it never existed.
	if _, err := repo.GetSession(ctx, s.DB, sessionID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// Waiting returns the waiting sessions visible to the operator, oldest
// first. Super admins see the whole fleet; managers are scoped to their
// project binding. A manager token minted without a project is refused
// rather than silently widened to the fleet view.
func (s *CallService) Waiting(ctx context.Context, p auth.Principal) ([]domain.CallSession, error) {
	if !auth.Can(auth.OpListWaitingCalls, p.Role) {
		return nil, ErrForbidden
	}
	projectScope := ""
	if p.Role != domain.RoleSuperAdmin {
		if p.ProjectID == "" {
			return nil, ErrProjectNotBound
		}
		projectScope = p.ProjectID
	}
	return repo.ListWaitingSessions(ctx, s.DB, projectScope)
}

// Active returns the operator's own connected session for the live call
// overlay, or ErrNoActiveCall when they are not on a call.
func (s *CallService) Active(ctx context.Context, p auth.Principal) (*domain.CallSession, error) {
	if !auth.Can(auth.OpActiveCall, p.Role) {
		return nil, ErrForbidden
	}
	session, err := repo.GetActiveSessionByStaff(ctx, s.DB, p.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoActiveCall
		}
		return nil, err
	}
	return session, nil
}

// HistoryPage returns a page of a kiosk's call history (most recent first)
// together with the total count for pagination.
func (s *CallService) HistoryPage(ctx context.Context, p auth.Principal, kioskID string, page, pageSize int) ([]domain.CallSession, int64, error) {
	if !auth.Can(auth.OpListCallHistory, p.Role) {
		return nil, 0, ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountSessionsByKiosk(ctx, s.DB, kioskID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.CallSession{}, 0, nil
	}
	items, err := repo.ListSessionsByKioskPage(ctx, s.DB, kioskID, offset, pageSize)
	return items, total, err
}
