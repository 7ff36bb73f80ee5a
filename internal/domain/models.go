// Package domain defines the persistence models for kiosks, queued device
// commands, call sessions, and payment transactions. These types are mapped
// with GORM and form the core data layer of the kiosk coordination backend.
package domain

import (
	"time"
)

// Role names carried by principals. Kiosk devices authenticate with the
// device-tier role; managers and super admins form the admin tier.
const (
	RoleKiosk      = "kiosk"
	RoleManager    = "manager"
	RoleSuperAdmin = "super_admin"
)

// Command kinds an operator may dispatch to a kiosk.
const (
	CommandLogout         = "logout"
	CommandReboot         = "reboot"
	CommandCancelPayment  = "cancel_payment"
	CommandRefreshContent = "refresh_content"
)

// Call session statuses. Transitions are monotonic:
// waiting → connected → ended, or waiting → ended (abandoned before pickup).
const (
	CallWaiting   = "waiting"
	CallConnected = "connected"
	CallEnded     = "ended"
)

// Caller types recorded on a call session for notification routing.
const (
	CallerKiosk   = "kiosk"
	CallerManager = "manager"
)

// Payment transaction statuses.
const (
	PaymentPending   = "pending"
	PaymentApproved  = "approved"
	PaymentCancelled = "cancelled"
	PaymentFailed    = "failed"
)

// Payment types accepted by the kiosk terminal.
const (
	PayTypeCredit      = "credit"
	PayTypeDebit       = "debit"
	PayTypeCashReceipt = "cash_receipt"
	PayTypeSimplePay   = "simple_pay"
)

// Kiosk is one physical self-check-in device. DeviceUserID links the device's
// authenticated principal to exactly one kiosk row, so a device can never
// poll on behalf of another kiosk.
type Kiosk struct {
	ID           string    `json:"id"             gorm:"type:char(36);primaryKey"`
	ProjectID    string    `json:"project_id"     gorm:"type:varchar(64);not null;index"`
	Name         string    `json:"name"           gorm:"type:varchar(255);not null"`
	DeviceUserID string    `json:"device_user_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Kiosk.
func (Kiosk) TableName() string { return "kiosks" }

// Command represents one instruction queued for a specific kiosk.
//
// Once Processed flips to true it is never reset: the claiming poll is the
// single delivery the queue guarantees (at-most-once). Rows are retained
// after the claim as an audit trail; pruning is an external housekeeping
// concern, never done by the core.
type Command struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	KioskID   string    `json:"kiosk_id"   gorm:"type:char(36);not null;index:idx_kiosk_pending,priority:1"`
	Kind      string    `json:"command"    gorm:"type:varchar(32);not null"`
	Payload   string    `json:"payload"    gorm:"type:text;not null;default:'{}'"`
	Processed bool      `json:"processed"  gorm:"not null;default:false;index:idx_kiosk_pending,priority:2"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for Command.
func (Command) TableName() string { return "commands" }

// CallSession is the lifecycle record of one voice/video call between a kiosk
// and an operator. StaffID stays nil until a human accepts; EndedAt is set
// exactly when the session reaches the terminal ended status. Sessions are
// never deleted and double as call history.
type CallSession struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	KioskID    string     `json:"kiosk_id"    gorm:"type:char(36);not null;index"`
	ProjectID  string     `json:"project_id"  gorm:"type:varchar(64);not null;index"`
	StaffID    *string    `json:"staff_id"    gorm:"type:varchar(64);index"`
	RoomName   string     `json:"room_name"   gorm:"type:varchar(64);not null;uniqueIndex"`
	Status     string     `json:"status"      gorm:"type:varchar(16);not null;default:'waiting';check:status IN ('waiting','connected','ended')"`
	CallerType string     `json:"caller_type" gorm:"type:varchar(16);not null;check:caller_type IN ('kiosk','manager')"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
	Notes      string     `json:"notes"       gorm:"type:text"`
}

// TableName returns the database table name for CallSession.
func (CallSession) TableName() string { return "call_sessions" }

// PaymentTransaction represents one payment attempt on a kiosk terminal and
// its eventual cancellation state. TransactionID is the external payment
// processor's own identifier; rows resolve by either key. The status moves
// to cancelled only through a successful cancellation round-trip; a failed
// report leaves the row untouched.
type PaymentTransaction struct {
	ID            string  `json:"id"             gorm:"type:char(36);primaryKey"`
	KioskID       string  `json:"kiosk_id"       gorm:"type:char(36);not null;index"`
	ReservationID *string `json:"reservation_id" gorm:"type:char(36)"`
	TransactionID string  `json:"transaction_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	Amount        int64   `json:"amount"         gorm:"not null"`
	Tax           int64   `json:"tax"            gorm:"not null;default:0"`
	PaymentType   string  `json:"payment_type"   gorm:"type:varchar(16);not null"`
	Status        string  `json:"status"         gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','approved','cancelled','failed')"`

	// Approval metadata echoed by the terminal on approval or cancellation.
	ApprovalNumber    string `json:"approval_number"    gorm:"type:varchar(32)"`
	AuthDate          string `json:"auth_date"          gorm:"type:varchar(8)"`
	AuthTime          string `json:"auth_time"          gorm:"type:varchar(6)"`
	CardNumberMasked  string `json:"card_number_masked" gorm:"type:varchar(32)"`
	CardName          string `json:"card_name"          gorm:"type:varchar(64)"`
	InstallmentMonths int    `json:"installment_months" gorm:"default:0"`

	ErrorCode    string     `json:"error_code"    gorm:"type:varchar(16)"`
	ErrorMessage string     `json:"error_message" gorm:"type:text"`
	CancelledAt  *time.Time `json:"cancelled_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for PaymentTransaction.
func (PaymentTransaction) TableName() string { return "payment_transactions" }

// ValidCommandKind reports whether kind is a dispatchable command kind.
func ValidCommandKind(kind string) bool {
	switch kind {
	case CommandLogout, CommandReboot, CommandCancelPayment, CommandRefreshContent:
		return true
	}
	return false
}

// ValidPaymentType reports whether t is a supported payment type.
func ValidPaymentType(t string) bool {
	switch t {
	case PayTypeCredit, PayTypeDebit, PayTypeCashReceipt, PayTypeSimplePay:
		return true
	}
	return false
}
