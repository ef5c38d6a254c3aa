package posts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()

	// ErrPostNotFound indicates that no post exists under the requested identifier.
	ErrPostNotFound = errors.New("posts: post not found")
)

// ServiceError carries an operation-scoped error code alongside its cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the dotted operation.reason error code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew  = "posts.service.new"
	opCreatePost  = "posts.create"
	opListPosts   = "posts.list"
	opListByUser  = "posts.list_by_user"
	opAdjustVotes = "posts.adjust_votes"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies of the posts service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns persistence of advice posts and their vote counts.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the posts service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:     cfg.Database,
		clock:  clock,
		logger: logger,
	}, nil
}

// Create validates the draft and inserts a new post with a zero vote count.
func (s *Service) Create(ctx context.Context, draft Draft) (Post, error) {
	if s.db == nil {
		s.logError(opCreatePost, "missing_database", errMissingDatabase)
		return Post{}, newServiceError(opCreatePost, "missing_database", errMissingDatabase)
	}
	if draft.UserID == "" {
		s.logError(opCreatePost, "missing_user_id", ErrInvalidUserID)
		return Post{}, newServiceError(opCreatePost, "missing_user_id", ErrInvalidUserID)
	}
	if err := draft.validate(); err != nil {
		return Post{}, newServiceError(opCreatePost, "invalid_draft", err)
	}

	post := Post{
		Title:        draft.Title,
		Description:  draft.Description,
		Steps:        draft.Steps,
		ForWho:       draft.ForWho,
		WhyItWorks:   draft.WhyItWorks,
		WhereItWorks: draft.WhereItWorks,
		Votes:        0,
		CreatedAt:    s.clock().UTC(),
		UserID:       draft.UserID.String(),
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		s.logError(opCreatePost, "insert_failed", err, zap.String("user_id", draft.UserID.String()))
		return Post{}, newServiceError(opCreatePost, "insert_failed", err)
	}

	return post, nil
}

// List returns all posts ordered by descending vote count. Ties keep the
// storage's natural insertion order.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	if s.db == nil {
		s.logError(opListPosts, "missing_database", errMissingDatabase)
		return nil, newServiceError(opListPosts, "missing_database", errMissingDatabase)
	}

	var stored []Post
	if err := s.db.WithContext(ctx).
		Order("votes DESC").
		Find(&stored).Error; err != nil {
		s.logError(opListPosts, "query_failed", err)
		return nil, newServiceError(opListPosts, "query_failed", err)
	}

	return stored, nil
}

// ListByUser returns the posts owned by the provided user, ordered by
// descending vote count.
func (s *Service) ListByUser(ctx context.Context, userID UserID) ([]Post, error) {
	if s.db == nil {
		s.logError(opListByUser, "missing_database", errMissingDatabase)
		return nil, newServiceError(opListByUser, "missing_database", errMissingDatabase)
	}
	if userID == "" {
		s.logError(opListByUser, "missing_user_id", ErrInvalidUserID)
		return nil, newServiceError(opListByUser, "missing_user_id", ErrInvalidUserID)
	}

	var stored []Post
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("votes DESC").
		Find(&stored).Error; err != nil {
		s.logError(opListByUser, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newServiceError(opListByUser, "query_failed", err)
	}

	return stored, nil
}

// AdjustVotes applies a signed delta to the post's vote count and returns the
// persisted new total. The adjustment runs as a single conditional update so
// concurrent callers cannot lose increments to a read-then-write race; each
// caller still observes an authoritative count via the follow-up read.
func (s *Service) AdjustVotes(ctx context.Context, postID PostID, delta int64) (int64, error) {
	if s.db == nil {
		s.logError(opAdjustVotes, "missing_database", errMissingDatabase)
		return 0, newServiceError(opAdjustVotes, "missing_database", errMissingDatabase)
	}
	if postID == 0 {
		return 0, newServiceError(opAdjustVotes, "invalid_post_id", ErrInvalidPostID)
	}

	update := s.db.WithContext(ctx).
		Model(&Post{}).
		Where("id = ?", postID.Uint64()).
		UpdateColumn("votes", gorm.Expr("votes + ?", delta))
	if update.Error != nil {
		s.logError(opAdjustVotes, "update_failed", update.Error, zap.Uint64("post_id", postID.Uint64()))
		return 0, newServiceError(opAdjustVotes, "update_failed", update.Error)
	}
	if update.RowsAffected == 0 {
		return 0, newServiceError(opAdjustVotes, "post_missing", ErrPostNotFound)
	}

	var stored Post
	if err := s.db.WithContext(ctx).
		Select("votes").
		Where("id = ?", postID.Uint64()).
		Take(&stored).Error; err != nil {
		s.logError(opAdjustVotes, "reload_failed", err, zap.Uint64("post_id", postID.Uint64()))
		return 0, newServiceError(opAdjustVotes, "reload_failed", err)
	}

	return stored.Votes, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("posts service error", attrs...)
}
