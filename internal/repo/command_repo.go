// Command queue persistence.
//
// The queue guarantees at-most-once delivery: a command is handed to its
// kiosk on the same logical step that marks it processed. The claim is a
// per-row conditional update (processed = false → true); a row whose update
// reports zero affected rows was won by a concurrent poller and is dropped
// from the result. Claimed commands are retained for audit and are never
// reset or re-delivered.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayport/go-kiosk-backend/internal/domain"
)

// CreateCommand inserts a new unprocessed command for kioskID. A non-empty
// id may be supplied by the caller when the id doubles as a correlation
// identifier (payment cancellation); otherwise a fresh UUID is generated.
func CreateCommand(ctx context.Context, db *gorm.DB, id, kioskID, kind, payload string) (*domain.Command, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if payload == "" {
		payload = "{}"
	}
	c := &domain.Command{
		ID:        id,
		KioskID:   kioskID,
		Kind:      kind,
		Payload:   payload,
		Processed: false,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ClaimPendingCommands returns all currently unprocessed commands for kioskID
// in creation order (oldest first) and marks each one processed.
//
// Each row is claimed with its own conditional update; a concurrent or
// retried poll for the same kiosk can therefore never receive the same
// command twice. An empty queue yields an empty slice, not an error.
func ClaimPendingCommands(ctx context.Context, db *gorm.DB, kioskID string) ([]domain.Command, error) {
	var pending []domain.Command
	err := db.WithContext(ctx).
		Where("kiosk_id = ? AND processed = ?", kioskID, false).
		Order("created_at asc").
		Find(&pending).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]domain.Command, 0, len(pending))
	for _, c := range pending {
		res := db.WithContext(ctx).
			Model(&domain.Command{}).
			Where("id = ? AND processed = ?", c.ID, false).
			Update("processed", true)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to another poller; that poll owns the delivery.
			continue
		}
		c.Processed = true
		claimed = append(claimed, c)
	}
	return claimed, nil
}

// CountPendingCommands returns the number of unprocessed commands for kioskID.
func CountPendingCommands(ctx context.Context, db *gorm.DB, kioskID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Command{}).
		Where("kiosk_id = ? AND processed = ?", kioskID, false).
		Count(&n).Error
	return n, err
}
