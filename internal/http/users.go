package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtrump/garage-library/internal/auth"
	"github.com/mtrump/garage-library/internal/entities"
)

// UsersStore is the user persistence surface the controller needs.
// Implemented by internal/database/users.Repository.
type UsersStore interface {
	GetAll() ([]entities.User, error)
	GetByID(id uint) (*entities.User, error)
}

type UsersController struct {
	service *auth.Service
	store   UsersStore
}

func NewUsersController(service *auth.Service, store UsersStore) *UsersController {
	return &UsersController{
		service: service,
		store:   store,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (controller *UsersController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	user, err := controller.service.Register(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists),
			errors.Is(err, auth.ErrUsernameInvalid),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrPasswordTooLong),
			errors.Is(err, auth.ErrPasswordTooSimple):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "register user")
		}
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (controller *UsersController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	token, err := controller.service.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
			return
		}
		respondInternalError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListUsers is admin-only, enforced by middleware in the router.
func (controller *UsersController) ListUsers(c *gin.Context) {
	users, err := controller.store.GetAll()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, users)
}
