package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/syncstatus"
	"github.com/shelftrack/shelftrack/internal/sync"
	"github.com/shelftrack/shelftrack/internal/tasks"
)

// SyncController handles refresh triggers and progress polling.
type SyncController struct {
	orchestrator *sync.Orchestrator
	status       *syncstatus.Repository
	books        *books.Repository
	taskClient   *tasks.Client
}

// NewSyncController creates a new SyncController. taskClient may be nil, in
// which case bulk refreshes run inline on the request goroutine.
func NewSyncController(orchestrator *sync.Orchestrator, status *syncstatus.Repository, booksRepo *books.Repository, taskClient *tasks.Client) *SyncController {
	return &SyncController{
		orchestrator: orchestrator,
		status:       status,
		books:        booksRepo,
		taskClient:   taskClient,
	}
}

// TriggerUserRefresh handles POST /api/users/:id/refresh.
// Enqueues a bulk refresh over every bookmarked book; 409 when a run is
// already in progress for the user.
func (sc *SyncController) TriggerUserRefresh(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	current, err := sc.status.Get(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if current != nil && current.InProgress {
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already in progress"})
		return
	}

	if sc.taskClient != nil {
		if _, err := sc.taskClient.Add(tasks.RefreshUserTask{UserID: userID}).Ctx(c.Request.Context()).Save(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "refresh scheduled"})
		return
	}

	result, err := sc.orchestrator.RefreshUser(c.Request.Context(), userID)
	if errors.Is(err, sync.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already in progress"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// RefreshStatusResponse is the polling payload for one user's run.
type RefreshStatusResponse struct {
	InProgress   bool    `json:"in_progress"`
	BooksUpdated int     `json:"books_updated"`
	TotalBooks   int     `json:"total_books"`
	CurrentTitle string  `json:"current_title,omitempty"`
	Progress     float64 `json:"progress"`
}

// GetRefreshStatus handles GET /api/users/:id/refresh/status.
func (sc *SyncController) GetRefreshStatus(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	status, err := sc.status.Get(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := RefreshStatusResponse{}
	if status != nil {
		resp.InProgress = status.InProgress
		resp.BooksUpdated = status.BooksUpdated
		resp.TotalBooks = status.TotalBooks
		resp.CurrentTitle = status.CurrentTitle
		if status.TotalBooks > 0 {
			resp.Progress = float64(status.BooksUpdated) / float64(status.TotalBooks) * 100
		}
	} else {
		resp.Progress = 100
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshBook handles POST /api/books/:bid/refresh.
// Runs a single-book refresh inline; single calls do not need pacing.
func (sc *SyncController) RefreshBook(c *gin.Context) {
	bid := c.Param("bid")
	if bid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "book ID is required"})
		return
	}

	hasData, err := sc.orchestrator.RefreshOne(c.Request.Context(), bid)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, catalogue.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bid": bid, "has_copies": hasData})
}

func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return 0, false
	}
	return uint(id), true
}
