package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtrump/garage-library/internal/auth"
	"github.com/mtrump/garage-library/internal/database/books"
	"github.com/mtrump/garage-library/internal/database/stacks"
	"github.com/mtrump/garage-library/internal/entities"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error
// response. The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondStoreError maps repository errors onto HTTP statuses: missing
// references become 404, rejected input 400, everything else 500.
func respondStoreError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, books.ErrStackNotFound), errors.Is(err, stacks.ErrStackNotFound):
		respondNotFound(c, "stack")
	case errors.Is(err, books.ErrTitleRequired),
		errors.Is(err, books.ErrOrderMismatch),
		errors.Is(err, books.ErrNoSearchFields),
		errors.Is(err, stacks.ErrNameRequired),
		errors.Is(err, stacks.ErrStackNotEmpty):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// resolveTargetUser decides which user a mutation acts for: admins may pass
// an explicit user id, members may not.
func resolveTargetUser(c *gin.Context, requested *uint) (uint, bool) {
	callerID := auth.GetUserID(c)
	if auth.GetUserLevel(c) >= entities.UserLevelAdmin {
		if requested != nil {
			return *requested, true
		}
		return callerID, true
	}
	if requested != nil {
		respondBadRequest(c, "normal users cannot specify user_id")
		return 0, false
	}
	return callerID, true
}
