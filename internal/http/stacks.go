package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mtrump/garage-library/internal/auth"
	"github.com/mtrump/garage-library/internal/entities"
)

// StacksStore is the stack persistence surface the controller needs.
// Implemented by internal/database/stacks.Repository.
type StacksStore interface {
	Create(name string, location *string, userID uint) (*entities.Stack, error)
	Update(id uint, name string, location *string) (*entities.Stack, error)
	Delete(id uint, cascade bool) error
	GetWithBooks(id uint) (*entities.Stack, error)
	GetAllForUser(userID uint) ([]entities.Stack, error)
}

// StackReorderer is the single reordering operation the stacks API exposes;
// the books repository implements it.
type StackReorderer interface {
	Reorder(stackID uint, orderedBookIDs []uint) error
}

type StacksController struct {
	store     StacksStore
	reorderer StackReorderer
	users     UsersStore
}

func NewStacksController(store StacksStore, reorderer StackReorderer, users UsersStore) *StacksController {
	return &StacksController{
		store:     store,
		reorderer: reorderer,
		users:     users,
	}
}

func (controller *StacksController) ListStacks(c *gin.Context) {
	stacks, err := controller.store.GetAllForUser(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list stacks")
		return
	}
	c.JSON(http.StatusOK, stacks)
}

// GetStack returns a stack with its books ordered by position.
func (controller *StacksController) GetStack(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	stack, err := controller.store.GetWithBooks(id)
	if err != nil {
		respondStoreError(c, err, "get stack")
		return
	}
	if stack.Books == nil {
		stack.Books = []entities.Book{}
	}
	c.JSON(http.StatusOK, stack)
}

type createStackRequest struct {
	Name     string  `json:"name" binding:"required"`
	Location *string `json:"location"`
	UserID   *uint   `json:"user_id"`
}

func (controller *StacksController) CreateStack(c *gin.Context) {
	var req createStackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "stack name is required")
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

	stack, err := controller.store.Create(req.Name, req.Location, userID)
	if err != nil {
		respondStoreError(c, err, "create stack")
		return
	}
	c.JSON(http.StatusCreated, stack)
}

type updateStackRequest struct {
	Name     string  `json:"name" binding:"required"`
	Location *string `json:"location"`
}

func (controller *StacksController) UpdateStack(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateStackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "stack name is required")
		return
	}

	stack, err := controller.store.Update(id, req.Name, req.Location)
	if err != nil {
		respondStoreError(c, err, "update stack")
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (controller *StacksController) DeleteStack(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	cascade := c.Query("cascade") == "true"

	if err := controller.store.Delete(id, cascade); err != nil {
		respondStoreError(c, err, "delete stack")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stack deleted"})
}

type reorderRequest struct {
	BookIDs []uint `json:"book_ids"`
}

// ReorderStack rewrites the stack's complete ordering and returns the stack
// with its books in the new order.
func (controller *StacksController) ReorderStack(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_ids is required")
		return
	}

	if err := controller.reorderer.Reorder(id, req.BookIDs); err != nil {
		respondStoreError(c, err, "reorder stack")
		return
	}

	stack, err := controller.store.GetWithBooks(id)
	if err != nil {
		respondStoreError(c, err, "get stack after reorder")
		return
	}
	c.JSON(http.StatusOK, stack)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func parseUintQuery(c *gin.Context, name, raw string) (uint, bool) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
