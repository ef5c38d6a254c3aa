package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrMissingUserID indicates an upsert or lookup without a user identifier.
	ErrMissingUserID = errors.New("profiles: user identifier is required")
	// ErrProfileNotFound indicates that the user has no profile row yet.
	ErrProfileNotFound = errors.New("profiles: profile not found")
)

// Profile captures a user's public presentation. One row per user; upserts
// replace the whole row, last write wins.
type Profile struct {
	UserID      string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	DisplayName string    `gorm:"column:display_name;size:320"`
	AvatarURL   string    `gorm:"column:avatar_url;size:512"`
	Bio         string    `gorm:"column:bio;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing user profiles.
func (Profile) TableName() string {
	return "profiles"
}

// ServiceConfig describes the dependencies of the profiles service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns create-or-replace persistence of user profiles.
type Service struct {
	db     *gorm.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewService constructs the profiles service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("profiles: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, now: clock, logger: logger}, nil
}

// Upsert creates or replaces the profile row keyed by user id. Repeated calls
// are idempotent with respect to final state.
func (s *Service) Upsert(ctx context.Context, profile Profile) (Profile, error) {
	userID := strings.TrimSpace(profile.UserID)
	if userID == "" {
		return Profile{}, ErrMissingUserID
	}

	record := Profile{
		UserID:      userID,
		DisplayName: strings.TrimSpace(profile.DisplayName),
		AvatarURL:   strings.TrimSpace(profile.AvatarURL),
		Bio:         profile.Bio,
		UpdatedAt:   s.now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "avatar_url", "bio", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		s.logger.Error("profile upsert failed", zap.String("user_id", userID), zap.Error(err))
		return Profile{}, fmt.Errorf("profiles: upsert failed: %w", err)
	}
	return record, nil
}

// Get returns the profile stored for the given user id.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return Profile{}, ErrMissingUserID
	}

	var stored Profile
	err := s.db.WithContext(ctx).
		Where("user_id = ?", trimmed).
		Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		s.logger.Error("profile lookup failed", zap.String("user_id", trimmed), zap.Error(err))
		return Profile{}, fmt.Errorf("profiles: lookup failed: %w", err)
	}
	return stored, nil
}
