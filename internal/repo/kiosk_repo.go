// Kiosk registry persistence. The registry exists so device principals can be
// resolved to exactly one kiosk row; a kiosk never names itself in a request.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayport/go-kiosk-backend/internal/domain"
)

// CreateKiosk inserts a new kiosk bound to deviceUserID. The kiosk ID is a
// randomly generated UUID.
func CreateKiosk(ctx context.Context, db *gorm.DB, projectID, name, deviceUserID string) (*domain.Kiosk, error) {
	k := &domain.Kiosk{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		Name:         name,
		DeviceUserID: deviceUserID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(k).Error; err != nil {
		return nil, err
	}
	return k, nil
}

// GetKiosk fetches a kiosk by its ID, or ErrNotFound.
func GetKiosk(ctx context.Context, db *gorm.DB, id string) (*domain.Kiosk, error) {
	var k domain.Kiosk
	if err := db.WithContext(ctx).Where("id = ?", id).First(&k).Error; err != nil {
		return nil, err
	}
	return &k, nil
}

// GetKioskByDeviceUser resolves the kiosk bound to a device principal's user
// id, or ErrNotFound when the principal is not linked to any kiosk. A missing
// binding is a misconfiguration and is surfaced distinctly from an empty
// command queue.
func GetKioskByDeviceUser(ctx context.Context, db *gorm.DB, deviceUserID string) (*domain.Kiosk, error) {
	var k domain.Kiosk
	if err := db.WithContext(ctx).Where("device_user_id = ?", deviceUserID).First(&k).Error; err != nil {
		return nil, err
	}
	return &k, nil
}
