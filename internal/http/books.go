package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/aggregate"
	"github.com/shelftrack/shelftrack/internal/bookshelf"
	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/database/availability"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/entities"
)

// BooksController handles bookmark management and read-side views.
type BooksController struct {
	bookshelf    *bookshelf.Service
	books        *books.Repository
	availability *availability.Repository
}

// NewBooksController creates a new BooksController.
func NewBooksController(shelf *bookshelf.Service, booksRepo *books.Repository, availRepo *availability.Repository) *BooksController {
	return &BooksController{
		bookshelf:    shelf,
		books:        booksRepo,
		availability: availRepo,
	}
}

// BookWithAvailability is one tracked book and its current copies.
type BookWithAvailability struct {
	Book  entities.Book               `json:"book"`
	Items []entities.AvailabilityItem `json:"items"`
}

// ListBooks handles GET /api/users/:id/books.
// Supports ?library=<branch> to narrow to one branch ("all" for everything).
func (bc *BooksController) ListBooks(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	userBooks, items, ok := bc.loadUserRecords(c, userID)
	if !ok {
		return
	}

	if library := c.Query("library"); library != "" {
		userBooks, items = aggregate.FilterByLibrary(userBooks, items, library)
	}

	byBID := make(map[string][]entities.AvailabilityItem)
	for _, item := range items {
		byBID[item.BID] = append(byBID[item.BID], item)
	}

	out := make([]BookWithAvailability, 0, len(userBooks))
	for _, book := range userBooks {
		out = append(out, BookWithAvailability{Book: book, Items: byBID[book.BID]})
	}
	c.JSON(http.StatusOK, gin.H{"books": out})
}

// SummaryResponse aggregates a user's tracked books for dashboards.
type SummaryResponse struct {
	UniqueTitles    []string                 `json:"unique_titles"`
	AvailableTitles []string                 `json:"available_titles"`
	LibraryCounts   []aggregate.LibraryCount `json:"library_counts"`
	TopLibraries    []aggregate.LibraryCount `json:"top_libraries"`
}

// GetSummary handles GET /api/users/:id/summary.
func (bc *BooksController) GetSummary(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	userBooks, items, ok := bc.loadUserRecords(c, userID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		UniqueTitles:    aggregate.UniqueTitles(userBooks),
		AvailableTitles: aggregate.AvailableTitles(userBooks, items),
		LibraryCounts:   aggregate.PerLibraryCounts(items),
		TopLibraries:    aggregate.RankedLibraryCounts(items, 5),
	})
}

// AddBookmark handles POST /api/users/:id/books with body {"bid": "..."}.
func (bc *BooksController) AddBookmark(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req struct {
		BID string `json:"bid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bid is required"})
		return
	}

	book, err := bc.bookshelf.Bookmark(c.Request.Context(), userID, req.BID)
	if errors.Is(err, catalogue.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no catalogue record for this BID"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, book)
}

// RemoveBookmark handles DELETE /api/users/:id/books/:bid.
func (bc *BooksController) RemoveBookmark(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	err := bc.bookshelf.Unbookmark(userID, c.Param("bid"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "bookmark not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (bc *BooksController) loadUserRecords(c *gin.Context, userID uint) ([]entities.Book, []entities.AvailabilityItem, bool) {
	userBooks, err := bc.books.GetBooks(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	bids := make([]string, 0, len(userBooks))
	for _, book := range userBooks {
		bids = append(bids, book.BID)
	}
	items, err := bc.availability.GetAvailabilityForBIDs(bids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return userBooks, items, true
}
