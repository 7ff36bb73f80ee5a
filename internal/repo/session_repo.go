// Call session persistence.
//
// Status changes are single-row conditional updates keyed on the current
// status (accept-if-waiting, end-if-not-ended), so concurrent accepts or
// racing end legs resolve to exactly one winner without in-process locks.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stayport/go-kiosk-backend/internal/domain"
)

// CreateSession inserts a new call session in the waiting status.
func CreateSession(ctx context.Context, db *gorm.DB, s *domain.CallSession) error {
	s.Status = domain.CallWaiting
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(s).Error
}

// GetSession fetches a session by ID, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.CallSession, error) {
	var s domain.CallSession
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// AcceptSession flips a waiting session to connected and records the staff
// member who picked up. It reports whether this caller won the accept: a
// false return with nil error means the session had already left waiting.
func AcceptSession(ctx context.Context, db *gorm.DB, id, staffID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.CallSession{}).
		Where("id = ? AND status IN ?", id, domain.CallTransitionSources(domain.CallActionAccept)).
		Updates(map[string]any{
			"status":   domain.CallConnected,
			"staff_id": staffID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// EndSession moves a session to the terminal ended status and stamps the end
// time. The update is conditional on the session not being ended yet, so the
// first end wins and later calls are no-ops; EndedAt is never overwritten.
// It reports whether this call performed the transition.
func EndSession(ctx context.Context, db *gorm.DB, id, notes string, at time.Time) (bool, error) {
	values := map[string]any{
		"status":   domain.CallEnded,
		"ended_at": at,
	}
	if notes != "" {
		values["notes"] = notes
	}
	res := db.WithContext(ctx).
		Model(&domain.CallSession{}).
		Where("id = ? AND status IN ?", id, domain.CallTransitionSources(domain.CallActionEnd)).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListWaitingSessions returns waiting sessions, oldest first. When projectID
// is non-empty the result is scoped to that project; super admins pass an
// empty projectID to see the whole fleet.
func ListWaitingSessions(ctx context.Context, db *gorm.DB, projectID string) ([]domain.CallSession, error) {
	q := db.WithContext(ctx).Where("status = ?", domain.CallWaiting)
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	var out []domain.CallSession
	err := q.Order("started_at asc").Find(&out).Error
	return out, err
}

// GetActiveSessionByStaff returns the connected session the staff member is
// currently on, or ErrNotFound when they are not in a call.
func GetActiveSessionByStaff(ctx context.Context, db *gorm.DB, staffID string) (*domain.CallSession, error) {
	var s domain.CallSession
	err := db.WithContext(ctx).
		Where("staff_id = ? AND status = ?", staffID, domain.CallConnected).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSessionsByKiosk returns the total number of sessions recorded for a
// kiosk, for pagination.
func CountSessionsByKiosk(ctx context.Context, db *gorm.DB, kioskID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.CallSession{}).
		Where("kiosk_id = ?", kioskID).
		Count(&total).Error
	return total, err
}

// ListSessionsByKioskPage returns a page of a kiosk's call history, most
// recent first.
func ListSessionsByKioskPage(ctx context.Context, db *gorm.DB, kioskID string, offset, limit int) ([]domain.CallSession, error) {
	var out []domain.CallSession
	err := db.WithContext(ctx).
		Where("kiosk_id = ?", kioskID).
		Order("started_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
