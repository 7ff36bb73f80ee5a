package repo

import (
	"context"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stayport/go-kiosk-backend/internal/domain"
)

func newKioskDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:kioskrepo?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("DELETE FROM kiosks")
	if err := db.AutoMigrate(&domain.Kiosk{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestKioskBindingResolution(t *testing.T) {
	db := newKioskDB(t)
	ctx := context.Background()

	k, err := CreateKiosk(ctx, db, "p1", "Lobby Kiosk 1", "device-7")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if k.ID == "" {
		t.Fatalf("expected generated kiosk id")
	}

	got, err := GetKioskByDeviceUser(ctx, db, "device-7")
	if err != nil {
		t.Fatalf("resolve binding: %v", err)
	}
	if got.ID != k.ID || got.ProjectID != "p1" {
		t.Fatalf("binding resolved wrong kiosk: %+v", got)
	}

	// Unbound principals are a misconfiguration, distinct from an idle queue.
	if _, err := GetKioskByDeviceUser(ctx, db, "device-unknown"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unbound device, got %v", err)
	}
}

func TestCreateKiosk_DuplicateDeviceBindingRejected(t *testing.T) {
	db := newKioskDB(t)
	ctx := context.Background()

	if _, err := CreateKiosk(ctx, db, "p1", "Kiosk A", "device-1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateKiosk(ctx, db, "p1", "Kiosk B", "device-1"); err == nil {
		t.Fatalf("expected unique violation for duplicate device binding")
	}
}
