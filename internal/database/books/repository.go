// Package books implements the ordered-collection side of the library: every
// structural mutation to a stack's book ordering runs here, as a single
// transaction that keeps the (stack_id, position) unique index satisfied at
// each individual write.
package books

import (
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mtrump/garage-library/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Fields carries the caller-editable attributes of a book.
type Fields struct {
	Title     string
	Author    *string
	Publisher *string
	Year      *string
	UserID    uint
}

func (f Fields) validate() (Fields, error) {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return f, ErrTitleRequired
	}
	return f, nil
}

// Append creates a book at the bottom of the stack, strictly after every
// existing position.
func (r *Repository) Append(stackID uint, fields Fields) (*entities.Book, error) {
	return r.insert(stackID, fields, true)
}

// Prepend creates a book at the top of the stack, strictly before every
// existing position.
func (r *Repository) Prepend(stackID uint, fields Fields) (*entities.Book, error) {
	return r.insert(stackID, fields, false)
}

func (r *Repository) insert(stackID uint, fields Fields, atEnd bool) (*entities.Book, error) {
	fields, err := fields.validate()
	if err != nil {
		return nil, err
	}

	var book *entities.Book
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := requireStack(tx, stackID); err != nil {
			return err
		}

		var position int
		var err error
		if atEnd {
			position, err = nextAppendPosition(tx, stackID)
		} else {
			position, err = prevPrependPosition(tx, stackID)
		}
		if err != nil {
			return fmt.Errorf("failed to compute position: %w", err)
		}

		book = &entities.Book{
			Title:     fields.Title,
			Author:    fields.Author,
			Publisher: fields.Publisher,
			Year:      fields.Year,
			StackID:   stackID,
			Position:  position,
			UserID:    fields.UserID,
		}
		if err := tx.Create(book).Error; err != nil {
			return classifyWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Move reassigns a book to the target stack, recomputing its position with
// the append or prepend rule. The origin stack keeps its gap; positions are
// never compacted outside a full reorder.
func (r *Repository) Move(bookID, targetStackID uint, atEnd bool) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if err := requireStack(tx, targetStackID); err != nil {
			return err
		}

		// The new position is computed against the target stack excluding
		// the book itself, so it lands strictly outside every occupied slot
		// even when the move stays within one stack. Writing stack_id and
		// position in a single statement means the unique index validates
		// the row exactly once, against its destination.
		position, err := targetPositionExcluding(tx, targetStackID, book.ID, atEnd)
		if err != nil {
			return fmt.Errorf("failed to compute position: %w", err)
		}
		updates := map[string]interface{}{
			"stack_id": targetStackID,
			"position": position,
		}
		if err := tx.Model(&book).Updates(updates).Error; err != nil {
			return classifyWriteError(err)
		}
		book.StackID = targetStackID
		book.Position = position
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Reorder atomically rewrites every position in the stack to match the given
// top-to-bottom id sequence. The sequence must be exactly the set of books
// the stack currently owns.
//
// Writes happen in two phases because the unique index is validated per
// statement, not per transaction: phase one parks every book on a distinct
// position below the stack's current minimum, phase two assigns the final
// 0-based index. A single-pass rewrite could hand book X a position book Y
// has not vacated yet.
func (r *Repository) Reorder(stackID uint, orderedBookIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := requireStack(tx, stackID); err != nil {
			return err
		}

		var current []entities.Book
		if err := tx.Where("stack_id = ?", stackID).Find(&current).Error; err != nil {
			return err
		}
		if err := validateOrdering(current, orderedBookIDs); err != nil {
			return err
		}

		tempBase := temporaryBase(current)
		for i, id := range orderedBookIDs {
			err := tx.Model(&entities.Book{}).
				Where("id = ?", id).
				Update("position", tempBase-(i+1)).Error
			if err != nil {
				return classifyWriteError(err)
			}
		}
		for i, id := range orderedBookIDs {
			err := tx.Model(&entities.Book{}).
				Where("id = ?", id).
				Update("position", i).Error
			if err != nil {
				return classifyWriteError(err)
			}
		}
		return nil
	})
}

// Update edits a book's fields in place without touching its position.
func (r *Repository) Update(bookID uint, fields Fields) (*entities.Book, error) {
	fields, err := fields.validate()
	if err != nil {
		return nil, err
	}

	var book entities.Book
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		book.Title = fields.Title
		book.Author = fields.Author
		book.Publisher = fields.Publisher
		book.Year = fields.Year
		if fields.UserID != 0 {
			book.UserID = fields.UserID
		}
		return tx.Save(&book).Error
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Delete removes a book. Its stack keeps the resulting position gap.
func (r *Repository) Delete(bookID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		return tx.Delete(&book).Error
	})
}

// GetByID retrieves a single book.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// GetAll returns every book in the library.
func (r *Repository) GetAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Find(&books).Error
	return books, err
}

// SearchFields toggles which columns a substring search matches against.
type SearchFields struct {
	Title     bool
	Author    bool
	Publisher bool
	Year      bool
}

// SearchResult is a book joined with the name of the stack holding it.
type SearchResult struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Author    *string `json:"author"`
	Publisher *string `json:"publisher"`
	Year      *string `json:"year"`
	StackID   uint    `json:"stack_id"`
	StackName string  `json:"stack_name"`
	UserID    uint    `json:"user_id"`
}

// Search finds a user's books whose selected fields contain the query
// substring, ordered by title.
func (r *Repository) Search(query string, fields SearchFields, userID uint) ([]SearchResult, error) {
	var conditions []string
	var params []interface{}
	pattern := "%" + query + "%"

	if fields.Title {
		conditions = append(conditions, "books.title LIKE ?")
		params = append(params, pattern)
	}
	if fields.Author {
		conditions = append(conditions, "books.author LIKE ?")
		params = append(params, pattern)
	}
	if fields.Publisher {
		conditions = append(conditions, "books.publisher LIKE ?")
		params = append(params, pattern)
	}
	if fields.Year {
		conditions = append(conditions, "books.year LIKE ?")
		params = append(params, pattern)
	}
	if len(conditions) == 0 {
		return nil, ErrNoSearchFields
	}

	var results []SearchResult
	err := r.db.Model(&entities.Book{}).
		Select("books.id, books.title, books.author, books.publisher, books.year, books.stack_id, stacks.name AS stack_name, books.user_id").
		Joins("JOIN stacks ON stacks.id = books.stack_id").
		Where("("+strings.Join(conditions, " OR ")+")", params...).
		Where("books.user_id = ?", userID).
		Order("books.title").
		Scan(&results).Error
	return results, err
}

func requireStack(tx *gorm.DB, stackID uint) error {
	var stack entities.Stack
	if err := tx.First(&stack, stackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStackNotFound
		}
		return err
	}
	return nil
}

// targetPositionExcluding computes the append/prepend position in a stack
// while ignoring one book id (the book being moved, already parked there).
func targetPositionExcluding(tx *gorm.DB, stackID, excludeID uint, atEnd bool) (int, error) {
	var others []entities.Book
	err := tx.Where("stack_id = ? AND id != ?", stackID, excludeID).Find(&others).Error
	if err != nil {
		return 0, err
	}
	if len(others) == 0 {
		return basePosition, nil
	}
	pos := others[0].Position
	for _, b := range others[1:] {
		if atEnd && b.Position > pos {
			pos = b.Position
		}
		if !atEnd && b.Position < pos {
			pos = b.Position
		}
	}
	if atEnd {
		return pos + 1, nil
	}
	return pos - 1, nil
}

func validateOrdering(current []entities.Book, orderedBookIDs []uint) error {
	if len(orderedBookIDs) != len(current) {
		return ErrOrderMismatch
	}
	owned := make(map[uint]bool, len(current))
	for _, b := range current {
		owned[b.ID] = true
	}
	seen := make(map[uint]bool, len(orderedBookIDs))
	for _, id := range orderedBookIDs {
		if !owned[id] || seen[id] {
			return ErrOrderMismatch
		}
		seen[id] = true
	}
	return nil
}

// classifyWriteError surfaces unique-index rejections as ErrPositionConflict
// so callers can tell a protocol bug apart from ordinary storage failures.
func classifyWriteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", ErrPositionConflict, err)
	}
	return err
}
