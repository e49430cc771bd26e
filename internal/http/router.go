// Package http exposes the sync engine over a thin JSON API: refresh
// triggers, progress polling, bookmark management, aggregate views and
// catalogue search.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shelftrack/shelftrack/internal/bookshelf"
	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/database/availability"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/syncstatus"
	"github.com/shelftrack/shelftrack/internal/sync"
	"github.com/shelftrack/shelftrack/internal/tasks"
)

// RouterConfig receives all handler dependencies.
type RouterConfig struct {
	Orchestrator *sync.Orchestrator
	Bookshelf    *bookshelf.Service
	Catalogue    *catalogue.Client
	Books        *books.Repository
	Availability *availability.Repository
	SyncStatus   *syncstatus.Repository
	// TaskClient is optional; without it refresh triggers run inline.
	TaskClient *tasks.Client
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", HealthCheck)

	syncController := NewSyncController(cfg.Orchestrator, cfg.SyncStatus, cfg.Books, cfg.TaskClient)
	booksController := NewBooksController(cfg.Bookshelf, cfg.Books, cfg.Availability)
	searchController := NewSearchController(cfg.Catalogue)

	api := router.Group("/api")
	{
		api.POST("/users/:id/refresh", syncController.TriggerUserRefresh)
		api.GET("/users/:id/refresh/status", syncController.GetRefreshStatus)
		api.POST("/books/:bid/refresh", syncController.RefreshBook)

		api.GET("/users/:id/books", booksController.ListBooks)
		api.GET("/users/:id/summary", booksController.GetSummary)
		api.POST("/users/:id/books", booksController.AddBookmark)
		api.DELETE("/users/:id/books/:bid", booksController.RemoveBookmark)

		api.GET("/search", searchController.Search)
	}

	return router
}
