package books

import (
	"database/sql"

	"gorm.io/gorm"

	"github.com/mtrump/garage-library/internal/entities"
)

// basePosition is where the first book in an empty stack lands, whether it
// arrives via append or prepend.
const basePosition = 0

// nextAppendPosition returns a position strictly greater than every position
// currently used in the stack. Positions are not compacted, so this is
// max+1, not the row count.
func nextAppendPosition(tx *gorm.DB, stackID uint) (int, error) {
	var max sql.NullInt64
	err := tx.Model(&entities.Book{}).
		Where("stack_id = ?", stackID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return basePosition, nil
	}
	return int(max.Int64) + 1, nil
}

// prevPrependPosition returns a position strictly less than every position
// currently used in the stack. Repeated prepends walk into negative values,
// which is fine: order is relative, not an array index.
func prevPrependPosition(tx *gorm.DB, stackID uint) (int, error) {
	var min sql.NullInt64
	err := tx.Model(&entities.Book{}).
		Where("stack_id = ?", stackID).
		Select("MIN(position)").
		Scan(&min).Error
	if err != nil {
		return 0, err
	}
	if !min.Valid {
		return basePosition, nil
	}
	return int(min.Int64) - 1, nil
}

// temporaryBase returns a value strictly below every live position in the
// given set of books, capped at 0. Phase one of a reorder assigns
// temporaryBase-(i+1) to the i-th book, which cannot collide with any
// current position (including negatives left behind by prepends) nor with
// another temporary.
func temporaryBase(stackBooks []entities.Book) int {
	base := 0
	for _, b := range stackBooks {
		if b.Position < base {
			base = b.Position
		}
	}
	return base
}
