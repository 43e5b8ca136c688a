package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mtrump/garage-library/internal/auth"
	"github.com/mtrump/garage-library/internal/database"
)

// RouterConfig carries every dependency the router wires into controllers.
type RouterConfig struct {
	Database       *database.Database
	BooksStore     BooksStore
	StacksStore    StacksStore
	Reorderer      StackReorderer
	UsersStore     UsersStore
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	StaticPath     string
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	usersController := NewUsersController(cfg.AuthService, cfg.UsersStore)
	stacksController := NewStacksController(cfg.StacksStore, cfg.Reorderer, cfg.UsersStore)
	booksController := NewBooksController(cfg.BooksStore, cfg.UsersStore)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Account endpoints
	router.POST("/api/register", usersController.Register)
	router.POST("/api/login", usersController.Login)

	// Public book reads
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/book/:id", booksController.GetBook)

	// Everything else requires a bearer token
	authed := router.Group("/api")
	authed.Use(cfg.AuthMiddleware.RequireAuth())
	{
		authed.GET("/users", cfg.AuthMiddleware.RequireAdmin(), usersController.ListUsers)

		authed.GET("/books/search", booksController.SearchBooks)
		authed.POST("/book", booksController.CreateBook)
		authed.PUT("/book/:id", booksController.UpdateBook)
		authed.DELETE("/book/:id", booksController.DeleteBook)

		authed.GET("/stacks", stacksController.ListStacks)
		authed.GET("/stack/:id", stacksController.GetStack)
		authed.POST("/stack", stacksController.CreateStack)
		authed.PATCH("/stack/:id", stacksController.UpdateStack)
		authed.PUT("/stack/:id", stacksController.ReorderStack)
		authed.DELETE("/stack/:id", stacksController.DeleteStack)
	}

	// Serve the SPA if static assets are present: /static for assets, and
	// index.html for every non-API path so client-side routing works.
	if cfg.StaticPath != "" {
		if _, err := os.Stat(cfg.StaticPath); err == nil {
			router.Static("/static", cfg.StaticPath)
			index := filepath.Join(cfg.StaticPath, "index.html")
			router.NoRoute(func(c *gin.Context) {
				if strings.HasPrefix(c.Request.URL.Path, "/api/") {
					c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
					return
				}
				c.File(index)
			})
		}
	}

	return router
}
