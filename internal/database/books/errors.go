package books

import "errors"

var (
	// ErrBookNotFound is returned when a referenced book id does not exist.
	ErrBookNotFound = errors.New("book not found")
	// ErrStackNotFound is returned when a referenced stack id does not exist.
	ErrStackNotFound = errors.New("stack not found")

	// ErrTitleRequired rejects books whose title is empty after trimming.
	ErrTitleRequired = errors.New("book title cannot be empty")
	// ErrOrderMismatch rejects a reorder list that is not exactly the set of
	// books currently in the stack (missing id, extra id, or duplicate id).
	ErrOrderMismatch = errors.New("book ids must contain exactly the books in this stack")
	// ErrNoSearchFields rejects a search with every field toggle disabled.
	ErrNoSearchFields = errors.New("at least one search field must be selected")

	// ErrPositionConflict indicates the storage layer rejected a position
	// write despite the two-phase protocol. The transaction is rolled back;
	// this points at a bug in position computation rather than bad input.
	ErrPositionConflict = errors.New("position conflict in stack")
)
