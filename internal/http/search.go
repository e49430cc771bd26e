package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shelftrack/shelftrack/internal/catalogue"
)

const searchPageSize = 20

// SearchController handles catalogue keyword search.
type SearchController struct {
	catalogue *catalogue.Client
}

// NewSearchController creates a new SearchController.
func NewSearchController(client *catalogue.Client) *SearchController {
	return &SearchController{catalogue: client}
}

// SearchResponse is one page of catalogue search results with the offsets a
// client needs for pagination links.
type SearchResponse struct {
	Results        []catalogue.SearchResult `json:"results"`
	TotalRecords   int                      `json:"total_records"`
	CurrentOffset  int                      `json:"current_offset"`
	PreviousOffset int                      `json:"previous_offset"`
	NextOffset     int                      `json:"next_offset"`
	LastOffset     int                      `json:"last_offset"`
	HasMore        bool                     `json:"has_more"`
}

// Search handles GET /api/search?q=<keywords>&offset=<n>.
func (sc *SearchController) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	page, err := sc.catalogue.SearchTitles(c.Request.Context(), query, offset, searchPageSize)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, catalogue.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	pager := catalogue.PageWindow(page, searchPageSize)
	c.JSON(http.StatusOK, SearchResponse{
		Results:        page.Results,
		TotalRecords:   page.TotalRecords,
		CurrentOffset:  pager.CurrentOffset,
		PreviousOffset: pager.PreviousOffset,
		NextOffset:     pager.NextOffset,
		LastOffset:     pager.LastOffset,
		HasMore:        page.HasMore,
	})
}
