package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrMissingUserID indicates an attempt to comment without an authenticated user.
	ErrMissingUserID = errors.New("comments: user identifier is required")
	// ErrMissingContent indicates an empty comment body.
	ErrMissingContent = errors.New("comments: content is required")
	// ErrInvalidPostID indicates a zero parent post identifier.
	ErrInvalidPostID = errors.New("comments: invalid post id")
)

// ServiceConfig describes the dependencies of the comments service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns persistence and read-time author resolution of comments.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the comments service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("comments: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Create inserts a comment under the given post for the given user.
func (s *Service) Create(ctx context.Context, postID uint64, userID, content string) (Comment, error) {
	if postID == 0 {
		return Comment{}, ErrInvalidPostID
	}
	if strings.TrimSpace(userID) == "" {
		return Comment{}, ErrMissingUserID
	}
	if strings.TrimSpace(content) == "" {
		return Comment{}, ErrMissingContent
	}

	comment := Comment{
		PostID:    postID,
		UserID:    strings.TrimSpace(userID),
		Content:   content,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		s.logger.Error("comment insert failed",
			zap.Uint64("post_id", postID),
			zap.String("user_id", userID),
			zap.Error(err))
		return Comment{}, fmt.Errorf("comments: insert failed: %w", err)
	}
	return comment, nil
}

type resolvedRow struct {
	ID          uint64    `gorm:"column:id"`
	PostID      uint64    `gorm:"column:post_id"`
	UserID      string    `gorm:"column:user_id"`
	Content     string    `gorm:"column:content"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	DisplayName string    `gorm:"column:display_name"`
}

// ListForPosts returns the comments of the given posts keyed by post id, each
// carrying the author's display name resolved from the profiles table. The
// display name stays empty for authors without a profile.
func (s *Service) ListForPosts(ctx context.Context, postIDs []uint64) (map[uint64][]Resolved, error) {
	grouped := make(map[uint64][]Resolved)
	if len(postIDs) == 0 {
		return grouped, nil
	}

	var rows []resolvedRow
	err := s.db.WithContext(ctx).
		Table("comments").
		Select("comments.id, comments.post_id, comments.user_id, comments.content, comments.created_at, profiles.display_name AS display_name").
		Joins("LEFT JOIN profiles ON profiles.user_id = comments.user_id").
		Where("comments.post_id IN ?", postIDs).
		Order("comments.created_at ASC, comments.id ASC").
		Scan(&rows).Error
	if err != nil {
		s.logger.Error("comment listing failed", zap.Error(err))
		return nil, fmt.Errorf("comments: listing failed: %w", err)
	}

	for _, row := range rows {
		grouped[row.PostID] = append(grouped[row.PostID], Resolved{
			ID:          row.ID,
			PostID:      row.PostID,
			UserID:      row.UserID,
			Content:     row.Content,
			CreatedAt:   row.CreatedAt,
			DisplayName: row.DisplayName,
		})
	}
	return grouped, nil
}
