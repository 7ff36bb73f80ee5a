package auth

import "github.com/stayport/go-kiosk-backend/internal/domain"

// Operation names every role-gated entry point of the coordination core.
// Keeping the authorization matrix in one table makes it auditable and lets
// tests assert it is complete, instead of scattering role string comparisons
// across handlers.
type Operation string

const (
	OpEnqueueCommand     Operation = "command.enqueue"
	OpPollCommands       Operation = "command.poll"
	OpInitiateCall       Operation = "call.initiate"
	OpAcceptCall         Operation = "call.accept"
	OpEndCall            Operation = "call.end"
	OpListWaitingCalls   Operation = "call.list_waiting"
	OpActiveCall         Operation = "call.active"
	OpListCallHistory    Operation = "call.history"
	OpIssueCancellation  Operation = "payment.issue_cancellation"
	OpReportCancellation Operation = "payment.report_cancellation"
	OpGetTransaction     Operation = "payment.get"
)

// permissions is the full authorization matrix: operation → roles allowed.
var permissions = map[Operation][]string{
	OpEnqueueCommand:     {domain.RoleManager, domain.RoleSuperAdmin},
	OpPollCommands:       {domain.RoleKiosk},
	OpInitiateCall:       {domain.RoleKiosk, domain.RoleManager, domain.RoleSuperAdmin},
	OpAcceptCall:         {domain.RoleManager, domain.RoleSuperAdmin},
	OpEndCall:            {domain.RoleKiosk, domain.RoleManager, domain.RoleSuperAdmin},
	OpListWaitingCalls:   {domain.RoleManager, domain.RoleSuperAdmin},
	OpActiveCall:         {domain.RoleManager, domain.RoleSuperAdmin},
	OpListCallHistory:    {domain.RoleManager, domain.RoleSuperAdmin},
	OpIssueCancellation:  {domain.RoleManager, domain.RoleSuperAdmin},
	OpReportCancellation: {domain.RoleKiosk, domain.RoleManager, domain.RoleSuperAdmin},
	OpGetTransaction:     {domain.RoleManager, domain.RoleSuperAdmin},
}

// Can reports whether role may perform op. Unknown operations and unknown
// roles are denied.
func Can(op Operation, role string) bool {
	for _, r := range permissions[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Operations returns every operation in the matrix; used by tests to verify
// the matrix covers the whole surface.
func Operations() []Operation {
	ops := make([]Operation, 0, len(permissions))
	for op := range permissions {
		ops = append(ops, op)
	}
	return ops
}
