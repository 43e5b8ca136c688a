// Package stacks provides database operations for stack management. Book
// ordering inside a stack is owned by the books package; this one only ever
// reads positions.
package stacks

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mtrump/garage-library/internal/entities"
)

var (
	ErrStackNotFound = errors.New("stack not found")
	ErrNameRequired  = errors.New("stack name cannot be empty")
	ErrStackNotEmpty = errors.New("stack still contains books")
)

// Repository handles all stack database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new stacks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create adds a stack. Names are trimmed and must be non-empty; two stacks
// may share a name.
func (r *Repository) Create(name string, location *string, userID uint) (*entities.Stack, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	stack := &entities.Stack{
		Name:     name,
		Location: trimLocation(location),
		UserID:   userID,
	}
	if err := r.db.Create(stack).Error; err != nil {
		return nil, err
	}
	return stack, nil
}

// Update renames and relocates a stack.
func (r *Repository) Update(id uint, name string, location *string) (*entities.Stack, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	location = trimLocation(location)

	var stack entities.Stack
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&stack, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStackNotFound
			}
			return err
		}
		stack.Name = name
		stack.Location = location
		return tx.Save(&stack).Error
	})
	if err != nil {
		return nil, err
	}
	return &stack, nil
}

// Delete removes a stack. It refuses while books remain unless cascade is
// set, in which case the books are deleted in the same transaction. The
// policy is the caller's to choose, never assumed.
func (r *Repository) Delete(id uint, cascade bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var stack entities.Stack
		if err := tx.First(&stack, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStackNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&entities.Book{}).Where("stack_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			if !cascade {
				return ErrStackNotEmpty
			}
			if err := tx.Where("stack_id = ?", id).Delete(&entities.Book{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&stack).Error
	})
}

// GetByID retrieves a stack without its books.
func (r *Repository) GetByID(id uint) (*entities.Stack, error) {
	var stack entities.Stack
	err := r.db.First(&stack, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStackNotFound
		}
		return nil, err
	}
	return &stack, nil
}

// GetWithBooks retrieves a stack with its books ordered by position, the
// stack's definitive top-to-bottom order.
func (r *Repository) GetWithBooks(id uint) (*entities.Stack, error) {
	var stack entities.Stack
	err := r.db.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&stack, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStackNotFound
		}
		return nil, err
	}
	return &stack, nil
}

// GetAllForUser returns a user's stacks without their books.
func (r *Repository) GetAllForUser(userID uint) ([]entities.Stack, error) {
	var stacks []entities.Stack
	err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&stacks).Error
	return stacks, err
}

func trimLocation(location *string) *string {
	if location == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*location)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
