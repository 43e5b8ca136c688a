package entities

import (
	"time"
)

// UserLevel controls what a user may do. Level 2 users administer the
// library and may act on behalf of other users.
type UserLevel int

const (
	UserLevelMember UserLevel = 1
	UserLevelAdmin  UserLevel = 2
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:24" json:"username"`
	PasswordHash string    `gorm:"size:128" json:"-"`
	Level        UserLevel `gorm:"default:1" json:"level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Stack is a named pile of books. Its books are ordered exclusively by
// their Position field.
type Stack struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:256" json:"name"`
	Location  *string   `gorm:"size:256" json:"location"`
	UserID    uint      `gorm:"index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Books     []Book    `gorm:"foreignKey:StackID" json:"books,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Book belongs to exactly one stack. Position is only meaningful relative
// to other books in the same stack; the composite unique index is what the
// reordering engine's two-phase writes are defending against.
//
// Rows are deleted hard: a soft-deleted row would keep occupying its
// (stack_id, position) slot in the unique index.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"index;size:512" json:"title"`
	Author    *string   `gorm:"index;size:256" json:"author"`
	Publisher *string   `gorm:"size:256" json:"publisher"`
	Year      *string   `gorm:"size:16" json:"year"`
	StackID   uint      `gorm:"index;uniqueIndex:idx_books_stack_position" json:"stack_id"`
	Position  int       `gorm:"uniqueIndex:idx_books_stack_position" json:"position"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Stack     Stack     `gorm:"foreignKey:StackID" json:"-"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (Stack) TableName() string {
	return "stacks"
}

func (Book) TableName() string {
	return "books"
}
