package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtrump/garage-library/internal/auth"
	"github.com/mtrump/garage-library/internal/database/books"
	"github.com/mtrump/garage-library/internal/entities"
)

// BooksStore is the book persistence surface the controller needs.
// Implemented by internal/database/books.Repository.
type BooksStore interface {
	Append(stackID uint, fields books.Fields) (*entities.Book, error)
	Prepend(stackID uint, fields books.Fields) (*entities.Book, error)
	Move(bookID, targetStackID uint, atEnd bool) (*entities.Book, error)
	Update(bookID uint, fields books.Fields) (*entities.Book, error)
	Delete(bookID uint) error
	GetByID(id uint) (*entities.Book, error)
	GetAll() ([]entities.Book, error)
	Search(query string, fields books.SearchFields, userID uint) ([]books.SearchResult, error)
}

type BooksController struct {
	store BooksStore
	users UsersStore
}

func NewBooksController(store BooksStore, users UsersStore) *BooksController {
	return &BooksController{
		store: store,
		users: users,
	}
}

func (controller *BooksController) ListBooks(c *gin.Context) {
	allBooks, err := controller.store.GetAll()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, allBooks)
}

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	book, err := controller.store.GetByID(id)
	if err != nil {
		respondStoreError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// SearchBooks matches a substring against the selected fields of the target
// user's books. Members always search their own books; admins may search
// another user's with ?user_id=.
func (controller *BooksController) SearchBooks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "query parameter q is required")
		return
	}

	fields := books.SearchFields{
		Title:     c.DefaultQuery("title", "true") == "true",
		Author:    c.DefaultQuery("author", "true") == "true",
		Publisher: c.Query("publisher") == "true",
		Year:      c.Query("year") == "true",
	}

	userID := auth.GetUserID(c)
	if auth.GetUserLevel(c) >= entities.UserLevelAdmin {
		if raw := c.Query("user_id"); raw != "" {
			parsed, ok := parseUintQuery(c, "user_id", raw)
			if !ok {
				return
			}
			userID = parsed
		}
	}

	results, err := controller.store.Search(query, fields, userID)
	if err != nil {
		respondStoreError(c, err, "search books")
		return
	}
	if results == nil {
		results = []books.SearchResult{}
	}
	c.JSON(http.StatusOK, results)
}

type createBookRequest struct {
	Title     string  `json:"title" binding:"required"`
	Author    *string `json:"author"`
	Publisher *string `json:"publisher"`
	Year      *string `json:"year"`
	StackID   uint    `json:"stack_id" binding:"required"`
	Position  string  `json:"position"`
	UserID    *uint   `json:"user_id"`
}

func (controller *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and stack_id are required")
		return
	}

	position := req.Position
	if position == "" {
		position = "end"
	}
	if position != "beginning" && position != "end" {
		respondBadRequest(c, "position must be 'beginning' or 'end'")
		return
	}

	userID, ok := resolveTargetUser(c, req.UserID)
	if !ok {
		return
	}
	if req.UserID != nil {
		if _, err := controller.users.GetByID(userID); err != nil {
			respondBadRequest(c, "user not found")
			return
		}
	}

	fields := books.Fields{
		Title:     req.Title,
		Author:    req.Author,
		Publisher: req.Publisher,
		Year:      req.Year,
		UserID:    userID,
	}

	var book *entities.Book
	var err error
	if position == "beginning" {
		book, err = controller.store.Prepend(req.StackID, fields)
	} else {
		book, err = controller.store.Append(req.StackID, fields)
	}
	if err != nil {
		respondStoreError(c, err, "create book")
		return
	}
	c.JSON(http.StatusCreated, book)
}

type updateBookRequest struct {
	Title     string  `json:"title" binding:"required"`
	Author    *string `json:"author"`
	Publisher *string `json:"publisher"`
	Year      *string `json:"year"`
	StackID   *uint   `json:"stack_id"`
	AtEnd     bool    `json:"at_end"`
	UserID    *uint   `json:"user_id"`
}

// UpdateBook edits a book's fields and, when stack_id names a different
// stack, moves it there (top of the target unless at_end is set).
func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}

	if req.UserID != nil {
		if auth.GetUserLevel(c) < entities.UserLevelAdmin {
			respondBadRequest(c, "normal users cannot specify user_id")
			return
		}
		if _, err := controller.users.GetByID(*req.UserID); err != nil {
			respondBadRequest(c, "user not found")
			return
		}
	}

	current, err := controller.store.GetByID(id)
	if err != nil {
		respondStoreError(c, err, "update book")
		return
	}

	if req.StackID != nil && *req.StackID != current.StackID {
		if _, err := controller.store.Move(id, *req.StackID, req.AtEnd); err != nil {
			respondStoreError(c, err, "move book")
			return
		}
	}

	fields := books.Fields{
		Title:     req.Title,
		Author:    req.Author,
		Publisher: req.Publisher,
		Year:      req.Year,
	}
	if req.UserID != nil {
		fields.UserID = *req.UserID
	}

	book, err := controller.store.Update(id, fields)
	if err != nil {
		respondStoreError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := controller.store.Delete(id); err != nil {
		respondStoreError(c, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}
