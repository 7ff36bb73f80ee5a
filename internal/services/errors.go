// Package services implements the coordination core: the command dispatch
// queue, the call session state machine, and the payment cancellation
// round-trip. This file centralizes service-level error values so they can be
// consistently returned by service methods and mapped to HTTP results at the
// handler layer.
//
// Race losers (accepting an already-connected call, re-reporting a finished
// cancellation) are deliberately NOT in this list where the protocol treats
// them as benign; those come back as ordinary results, not errors.
package services

import "errors"

var (
	// ErrForbidden is returned when the principal's role is not permitted to
	// perform the operation. It is distinct from business-logic failures and
	// is raised before any state is touched.
	ErrForbidden = errors.New("operation not permitted for role")

	// ErrKioskNotBound indicates a device principal that is not linked to any
	// kiosk record. This is a misconfiguration, surfaced distinctly from an
	// empty command queue.
	ErrKioskNotBound = errors.New("no kiosk bound to principal")

	// ErrMissingTarget is returned when an enqueue names no target kiosk.
	ErrMissingTarget = errors.New("target kiosk id is required")

	// ErrUnknownCommandKind is returned for a command kind outside the
	// dispatchable set.
	ErrUnknownCommandKind = errors.New("unknown command kind")

	// ErrProjectNotBound indicates a manager principal whose token carries no
	// project binding. Project-scoped discovery refuses such tokens instead of
	// silently widening to the whole fleet.
	ErrProjectNotBound = errors.New("no project bound to principal")

	// ErrSessionNotFound indicates the requested call session does not exist.
	ErrSessionNotFound = errors.New("call session not found")

	// ErrCallAlreadyHandled is returned to the loser of an accept race: the
	// session already left waiting because someone else picked up. Handlers
	// must not translate this into a hard error.
	ErrCallAlreadyHandled = errors.New("call already handled")

	// ErrNoActiveCall indicates the operator has no connected session.
	ErrNoActiveCall = errors.New("no active call")

	// ErrTransactionNotFound indicates the payment transaction could not be
	// resolved by internal or external identifier.
	ErrTransactionNotFound = errors.New("payment transaction not found")
)
