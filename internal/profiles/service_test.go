package profiles

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:profiles_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Profile{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return time.Unix(1700000600, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, db
}

func TestUpsertCreatesThenReplaces(t *testing.T) {
	service, db := newTestService(t)

	if _, err := service.Upsert(context.Background(), Profile{
		UserID: "user-1",
		Bio:    "first bio",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Upsert(context.Background(), Profile{
		UserID: "user-1",
		Bio:    "second bio",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int64
	if err := db.Model(&Profile{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count profiles: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row after repeated upserts, got %d", count)
	}

	stored, err := service.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Bio != "second bio" {
		t.Fatalf("expected last write to win, got %q", stored.Bio)
	}
}

func TestUpsertTrimsIdentityFields(t *testing.T) {
	service, _ := newTestService(t)

	stored, err := service.Upsert(context.Background(), Profile{
		UserID:      "  user-1  ",
		DisplayName: "  Dana  ",
		AvatarURL:   " https://example.com/a.png ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.UserID != "user-1" || stored.DisplayName != "Dana" {
		t.Fatalf("expected trimmed fields, got %#v", stored)
	}
}

func TestUpsertRequiresUserID(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Upsert(context.Background(), Profile{Bio: "bio"}); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected missing user id error, got %v", err)
	}
}

func TestGetReturnsNotFoundForUnknownUser(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Get(context.Background(), "nobody"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected profile not found error, got %v", err)
	}
}
