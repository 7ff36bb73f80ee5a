// Payment transaction persistence.
//
// A cancellation command resolves its target by internal id first, then by
// the external processor's transaction id. The move to cancelled is a
// conditional update keyed on "status is not cancelled yet", so a replayed
// success report cannot overwrite the approval metadata of the first one.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayport/go-kiosk-backend/internal/domain"
)

// CreateTransaction inserts a payment transaction row. Approval happens
// upstream on the kiosk; the coordination core only reads and cancels rows,
// but seeding and tests need the insert.
func CreateTransaction(ctx context.Context, db *gorm.DB, t *domain.PaymentTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.PaymentApproved
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(t).Error
}

// GetTransaction fetches a transaction by its internal id, or ErrNotFound.
func GetTransaction(ctx context.Context, db *gorm.DB, id string) (*domain.PaymentTransaction, error) {
	var t domain.PaymentTransaction
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransactionByExternalID fetches a transaction by the payment processor's
// own identifier, or ErrNotFound.
func GetTransactionByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.PaymentTransaction, error) {
	var t domain.PaymentTransaction
	if err := db.WithContext(ctx).Where("transaction_id = ?", externalID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CancelApproval carries the approval metadata of a successful terminal-side
// cancellation.
type CancelApproval struct {
	ApprovalNumber string
	AuthDate       string
	AuthTime       string
}

// MarkTransactionCancelled transitions a transaction to cancelled, stamping
// the cancellation time and approval metadata. The update is conditional on
// the row not being cancelled already; it reports whether this call performed
// the transition (false means a previous round-trip already cancelled it).
func MarkTransactionCancelled(ctx context.Context, db *gorm.DB, id string, a CancelApproval, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.PaymentTransaction{}).
		Where("id = ? AND status <> ?", id, domain.PaymentCancelled).
		Updates(map[string]any{
			"status":          domain.PaymentCancelled,
			"cancelled_at":    at,
			"approval_number": a.ApprovalNumber,
			"auth_date":       a.AuthDate,
			"auth_time":       a.AuthTime,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
