package books

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mtrump/garage-library/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Stack{},
		&entities.Book{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestStack(t *testing.T, db *gorm.DB, name string) *entities.Stack {
	stack := &entities.Stack{
		Name:   name,
		UserID: 1,
	}
	err := db.Create(stack).Error
	require.NoError(t, err)
	return stack
}

// titlesInOrder reads the stack top to bottom.
func titlesInOrder(t *testing.T, db *gorm.DB, stackID uint) []string {
	var books []entities.Book
	err := db.Where("stack_id = ?", stackID).Order("position ASC").Find(&books).Error
	require.NoError(t, err)

	titles := make([]string, 0, len(books))
	for _, b := range books {
		titles = append(titles, b.Title)
	}
	return titles
}

func positionsInOrder(t *testing.T, db *gorm.DB, stackID uint) []int {
	var books []entities.Book
	err := db.Where("stack_id = ?", stackID).Order("position ASC").Find(&books).Error
	require.NoError(t, err)

	positions := make([]int, 0, len(books))
	for _, b := range books {
		positions = append(positions, b.Position)
	}
	return positions
}

func TestRepository_Append_EmptyStack(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")

	book, err := repo.Append(stack.ID, Fields{Title: "Dune", UserID: 1})

	require.NoError(t, err)
	assert.Equal(t, 0, book.Position)
	assert.Equal(t, stack.ID, book.StackID)
}

func TestRepository_Append_Sequential(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")

	for i, title := range []string{"A", "B", "C"} {
		book, err := repo.Append(stack.ID, Fields{Title: title, UserID: 1})
		require.NoError(t, err)
		assert.Equal(t, i, book.Position)
	}

	assert.Equal(t, []string{"A", "B", "C"}, titlesInOrder(t, db, stack.ID))
}

func TestRepository_Append_AfterDeleteKeepsGap(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	_, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)
	middle, err := repo.Append(stack.ID, Fields{Title: "B", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "C", UserID: 1})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(middle.ID))

	// The gap at position 1 is not reused: append stays strictly after max.
	book, err := repo.Append(stack.ID, Fields{Title: "D", UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, book.Position)
	assert.Equal(t, []string{"A", "C", "D"}, titlesInOrder(t, db, stack.ID))
}

func TestRepository_Prepend_EmptyStack(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")

	book, err := repo.Prepend(stack.ID, Fields{Title: "Dune", UserID: 1})

	require.NoError(t, err)
	assert.Equal(t, 0, book.Position)
}

func TestRepository_Prepend_WalksNegative(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	_, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)

	first, err := repo.Prepend(stack.ID, Fields{Title: "B", UserID: 1})
	require.NoError(t, err)
	second, err := repo.Prepend(stack.ID, Fields{Title: "C", UserID: 1})
	require.NoError(t, err)

	assert.Equal(t, -1, first.Position)
	assert.Equal(t, -2, second.Position)
	assert.Equal(t, []string{"C", "B", "A"}, titlesInOrder(t, db, stack.ID))
}

func TestRepository_PrependAppendPrepend(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")

	_, err := repo.Prepend(stack.ID, Fields{Title: "T", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "U", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Prepend(stack.ID, Fields{Title: "V", UserID: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"V", "T", "U"}, titlesInOrder(t, db, stack.ID))
	assert.Equal(t, []int{-1, 0, 1}, positionsInOrder(t, db, stack.ID))
}

func TestRepository_Insert_TitleRequired(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")

	_, err := repo.Append(stack.ID, Fields{Title: "   ", UserID: 1})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = repo.Prepend(stack.ID, Fields{Title: "", UserID: 1})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestRepository_Insert_StackNotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Append(999, Fields{Title: "Dune", UserID: 1})
	assert.ErrorIs(t, err, ErrStackNotFound)
}

func TestRepository_Reorder(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	x, err := repo.Append(stack.ID, Fields{Title: "X", UserID: 1})
	require.NoError(t, err)
	y, err := repo.Append(stack.ID, Fields{Title: "Y", UserID: 1})
	require.NoError(t, err)
	z, err := repo.Append(stack.ID, Fields{Title: "Z", UserID: 1})
	require.NoError(t, err)

	err = repo.Reorder(stack.ID, []uint{z.ID, x.ID, y.ID})

	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "X", "Y"}, titlesInOrder(t, db, stack.ID))
	assert.Equal(t, []int{0, 1, 2}, positionsInOrder(t, db, stack.ID))
}

func TestRepository_Reorder_CompactsGapsAndNegatives(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Build a stack whose positions are scattered: -2, 0, 3.
	stack := createTestStack(t, db, "Shelf A")
	a, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)
	gap, err := repo.Append(stack.ID, Fields{Title: "gap", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "gap2", UserID: 1})
	require.NoError(t, err)
	b, err := repo.Append(stack.ID, Fields{Title: "B", UserID: 1})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(gap.ID))
	var gap2 entities.Book
	require.NoError(t, db.Where("title = ?", "gap2").First(&gap2).Error)
	require.NoError(t, repo.Delete(gap2.ID))
	c, err := repo.Prepend(stack.ID, Fields{Title: "C", UserID: 1})
	require.NoError(t, err)
	require.Equal(t, []int{-1, 0, 3}, positionsInOrder(t, db, stack.ID))

	err = repo.Reorder(stack.ID, []uint{b.ID, a.ID, c.ID})

	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, titlesInOrder(t, db, stack.ID))
	assert.Equal(t, []int{0, 1, 2}, positionsInOrder(t, db, stack.ID))
}

func TestRepository_Reorder_SameOrderIsIdempotent(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	a, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)
	b, err := repo.Append(stack.ID, Fields{Title: "B", UserID: 1})
	require.NoError(t, err)

	require.NoError(t, repo.Reorder(stack.ID, []uint{a.ID, b.ID}))
	require.NoError(t, repo.Reorder(stack.ID, []uint{a.ID, b.ID}))

	assert.Equal(t, []string{"A", "B"}, titlesInOrder(t, db, stack.ID))
	assert.Equal(t, []int{0, 1}, positionsInOrder(t, db, stack.ID))
}

func TestRepository_Reorder_WrongCardinality(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	a, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "B", UserID: 1})
	require.NoError(t, err)

	err = repo.Reorder(stack.ID, []uint{a.ID})

	assert.ErrorIs(t, err, ErrOrderMismatch)
	assert.Equal(t, []string{"A", "B"}, titlesInOrder(t, db, stack.ID))
}

func TestRepository_Reorder_ForeignBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	other := createTestStack(t, db, "Shelf B")
	a, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)
	foreign, err := repo.Append(other.ID, Fields{Title: "F", UserID: 1})
	require.NoError(t, err)

	err = repo.Reorder(stack.ID, []uint{foreign.ID})

	assert.ErrorIs(t, err, ErrOrderMismatch)
	assert.Equal(t, 0, positionsInOrder(t, db, stack.ID)[0])
	_ = a
}

func TestRepository_Reorder_DuplicateIDLeavesOrderUnchanged(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	a, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)
	b, err := repo.Append(stack.ID, Fields{Title: "B", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "C", UserID: 1})
	require.NoError(t, err)

	err = repo.Reorder(stack.ID, []uint{a.ID, b.ID, b.ID})

	assert.ErrorIs(t, err, ErrOrderMismatch)
	assert.Equal(t, []string{"A", "B", "C"}, titlesInOrder(t, db, stack.ID))
	assert.Equal(t, []int{0, 1, 2}, positionsInOrder(t, db, stack.ID))
}

func TestRepository_Reorder_StackNotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.Reorder(999, []uint{1})
	assert.ErrorIs(t, err, ErrStackNotFound)
}

func TestRepository_Move_ToEndOfOtherStack(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	source := createTestStack(t, db, "Shelf A")
	target := createTestStack(t, db, "Shelf B")
	book, err := repo.Append(source.ID, Fields{Title: "Moving", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(source.ID, Fields{Title: "Stays", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(target.ID, Fields{Title: "Anchor", UserID: 1})
	require.NoError(t, err)

	moved, err := repo.Move(book.ID, target.ID, true)

	require.NoError(t, err)
	assert.Equal(t, target.ID, moved.StackID)
	assert.Equal(t, 1, moved.Position)
	assert.Equal(t, []string{"Anchor", "Moving"}, titlesInOrder(t, db, target.ID))

	// The origin keeps its gap at position 0.
	assert.Equal(t, []string{"Stays"}, titlesInOrder(t, db, source.ID))
	assert.Equal(t, []int{1}, positionsInOrder(t, db, source.ID))
}

func TestRepository_Move_ToBeginning(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	source := createTestStack(t, db, "Shelf A")
	target := createTestStack(t, db, "Shelf B")
	book, err := repo.Append(source.ID, Fields{Title: "Moving", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(target.ID, Fields{Title: "Anchor", UserID: 1})
	require.NoError(t, err)

	moved, err := repo.Move(book.ID, target.ID, false)

	require.NoError(t, err)
	assert.Equal(t, -1, moved.Position)
	assert.Equal(t, []string{"Moving", "Anchor"}, titlesInOrder(t, db, target.ID))
}

func TestRepository_Move_IntoEmptyStack(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	source := createTestStack(t, db, "Shelf A")
	target := createTestStack(t, db, "Shelf B")
	book, err := repo.Append(source.ID, Fields{Title: "Moving", UserID: 1})
	require.NoError(t, err)

	moved, err := repo.Move(book.ID, target.ID, true)

	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
}

func TestRepository_Move_WithinSameStack(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	top, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "B", UserID: 1})
	require.NoError(t, err)

	// Moving A to the end of its own stack places it after B.
	moved, err := repo.Move(top.ID, stack.ID, true)

	require.NoError(t, err)
	assert.Equal(t, 2, moved.Position)
	assert.Equal(t, []string{"B", "A"}, titlesInOrder(t, db, stack.ID))
}

func TestRepository_Move_BookNotFound(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")

	_, err := repo.Move(999, stack.ID, true)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_Move_StackNotFound(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	book, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)

	_, err = repo.Move(book.ID, 999, true)
	assert.ErrorIs(t, err, ErrStackNotFound)
}

func TestRepository_Update_KeepsPosition(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	_, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)
	book, err := repo.Append(stack.ID, Fields{Title: "B", UserID: 1})
	require.NoError(t, err)

	author := "Frank Herbert"
	updated, err := repo.Update(book.ID, Fields{Title: "Dune", Author: &author})

	require.NoError(t, err)
	assert.Equal(t, "Dune", updated.Title)
	assert.Equal(t, 1, updated.Position)
	assert.Equal(t, stack.ID, updated.StackID)
}

func TestRepository_Update_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Update(999, Fields{Title: "Dune"})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_Delete_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.Delete(999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByID(999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_UniqueIndexRejectsDuplicatePosition(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	_, err := repo.Append(stack.ID, Fields{Title: "A", UserID: 1})
	require.NoError(t, err)

	// Bypass the repository to prove the index itself holds the invariant.
	err = db.Create(&entities.Book{
		Title:    "Collider",
		StackID:  stack.ID,
		Position: 0,
		UserID:   1,
	}).Error

	require.Error(t, err)
	assert.ErrorIs(t, classifyWriteError(err), ErrPositionConflict)
}

func TestRepository_Search(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	herbert := "Frank Herbert"
	_, err := repo.Append(stack.ID, Fields{Title: "Dune", Author: &herbert, UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "Hyperion", UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "Dune Messiah", Author: &herbert, UserID: 2})
	require.NoError(t, err)

	results, err := repo.Search("dune", SearchFields{Title: true}, 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dune", results[0].Title)
	assert.Equal(t, "Shelf A", results[0].StackName)
}

func TestRepository_Search_ByAuthor(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	stack := createTestStack(t, db, "Shelf A")
	herbert := "Frank Herbert"
	_, err := repo.Append(stack.ID, Fields{Title: "Dune", Author: &herbert, UserID: 1})
	require.NoError(t, err)
	_, err = repo.Append(stack.ID, Fields{Title: "Hyperion", UserID: 1})
	require.NoError(t, err)

	results, err := repo.Search("herbert", SearchFields{Author: true}, 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dune", results[0].Title)
}

func TestRepository_Search_NoFields(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Search("dune", SearchFields{}, 1)
	assert.ErrorIs(t, err, ErrNoSearchFields)
}
