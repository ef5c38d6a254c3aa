package comments

import "time"

// Comment models a stored comment. Comments are immutable after insert.
type Comment struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PostID    uint64    `gorm:"column:post_id;not null;index"`
	UserID    string    `gorm:"column:user_id;size:190;not null;index"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Resolved is a comment projected with the author's display name as resolved
// from the profiles table at read time. DisplayName is empty when the author
// has no profile or no display name; consumers supply their own fallback.
type Resolved struct {
	ID          uint64
	PostID      uint64
	UserID      string
	Content     string
	CreatedAt   time.Time
	DisplayName string
}
