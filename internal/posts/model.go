package posts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	maxIdentifierLength = 190
	maxTitleLength      = 320
)

var (
	// ErrInvalidPostID indicates that a post identifier is zero or negative.
	ErrInvalidPostID = errors.New("posts: invalid post id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("posts: invalid user id")
	// ErrMissingField indicates that a required draft field is empty.
	ErrMissingField = errors.New("posts: required field missing")
)

// PostID represents a validated, server-assigned post identifier.
type PostID uint64

// NewPostID validates raw input and returns a PostID.
func NewPostID(rawValue int64) (PostID, error) {
	if rawValue <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPostID, rawValue)
	}
	return PostID(rawValue), nil
}

// Uint64 exposes the raw identifier value.
func (id PostID) Uint64() uint64 {
	return uint64(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// Post models a stored advice post. Votes start at zero and are only ever
// mutated through Service.AdjustVotes.
type Post struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Title        string    `gorm:"column:title;size:320;not null;index"`
	Description  string    `gorm:"column:description;type:text;not null"`
	Steps        string    `gorm:"column:steps;type:text;not null"`
	ForWho       string    `gorm:"column:for_who;type:text;not null"`
	WhyItWorks   string    `gorm:"column:why_it_works;type:text;not null"`
	WhereItWorks string    `gorm:"column:where_it_works;type:text;not null"`
	Votes        int64     `gorm:"column:votes;not null;default:0;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UserID       string    `gorm:"column:user_id;size:190;not null;index"`
}

// TableName provides the explicit table binding for GORM.
func (Post) TableName() string {
	return "posts"
}

// Draft carries the user-supplied fields of a new advice post.
type Draft struct {
	UserID       UserID
	Title        string
	Description  string
	Steps        string
	ForWho       string
	WhyItWorks   string
	WhereItWorks string
}

func (d Draft) validate() error {
	fields := map[string]string{
		"title":          d.Title,
		"description":    d.Description,
		"steps":          d.Steps,
		"for_who":        d.ForWho,
		"why_it_works":   d.WhyItWorks,
		"where_it_works": d.WhereItWorks,
	}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	if len(d.Title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrMissingField, maxTitleLength)
	}
	return nil
}
