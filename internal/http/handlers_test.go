package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelftrack/shelftrack/internal/bookshelf"
	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/database/availability"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/syncstatus"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/reconcile"
	"github.com/shelftrack/shelftrack/internal/sync"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

// setupTestEnv wires real repositories on a throwaway sqlite database and a
// catalogue client pointed at the given upstream handler.
func setupTestEnv(t *testing.T, upstream http.HandlerFunc) *testEnv {
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Bookmark{},
		&entities.AvailabilityItem{},
		&entities.SyncStatus{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	})

	if upstream == nil {
		upstream = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}
	}
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	catClient := catalogue.NewClient(catalogue.Config{BaseURL: server.URL})

	booksRepo := books.NewRepository(db)
	availRepo := availability.NewRepository(db)
	statusRepo := syncstatus.NewRepository(db)

	orchestrator := sync.NewOrchestrator(
		catClient,
		reconcile.NewReconciler(availRepo),
		booksRepo,
		statusRepo,
		sync.Config{PaceInterval: time.Millisecond, RateLimitBackoff: time.Millisecond},
	)
	shelf := bookshelf.NewService(catClient, booksRepo, orchestrator)

	router := NewRouter(RouterConfig{
		Orchestrator: orchestrator,
		Bookshelf:    shelf,
		Catalogue:    catClient,
		Books:        booksRepo,
		Availability: availRepo,
		SyncStatus:   statusRepo,
	})

	return &testEnv{router: router, db: db}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func seedBookWithItems(t *testing.T, env *testEnv, userID uint, bid, title string, items ...entities.AvailabilityItem) {
	t.Helper()
	require.NoError(t, env.db.Create(&entities.Book{BID: bid, Title: title}).Error)
	require.NoError(t, env.db.Create(&entities.Bookmark{UserID: userID, BID: bid}).Error)
	for i := range items {
		items[i].BID = bid
		require.NoError(t, env.db.Create(&items[i]).Error)
	}
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetRefreshStatusIdle(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/users/10/refresh/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RefreshStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.InProgress)
	assert.Equal(t, float64(100), resp.Progress)
}

func TestGetRefreshStatusRunning(t *testing.T) {
	env := setupTestEnv(t, nil)
	require.NoError(t, env.db.Create(&entities.SyncStatus{
		UserID:       10,
		InProgress:   true,
		BooksUpdated: 2,
		TotalBooks:   4,
		CurrentTitle: "Python for data analysis",
		StartedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}).Error)

	w := env.do(t, http.MethodGet, "/api/users/10/refresh/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RefreshStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.InProgress)
	assert.Equal(t, 2, resp.BooksUpdated)
	assert.Equal(t, float64(50), resp.Progress)
	assert.Equal(t, "Python for data analysis", resp.CurrentTitle)
}

func TestTriggerRefreshConflict(t *testing.T) {
	env := setupTestEnv(t, nil)
	require.NoError(t, env.db.Create(&entities.SyncStatus{
		UserID:     10,
		InProgress: true,
		StartedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}).Error)

	w := env.do(t, http.MethodPost, "/api/users/10/refresh", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTriggerRefreshInlineRun(t *testing.T) {
	env := setupTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalRecords": 1, "items": [
			{"itemId": "I1", "callNumber": "005.1",
			 "location": {"name": "Bishan Public Library"},
			 "transactionStatus": {"name": "Available"}}
		]}`))
	})
	seedBookWithItems(t, env, 10, "1", "Seeded")

	w := env.do(t, http.MethodPost, "/api/users/10/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result sync.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.BooksUpdated)
	assert.Empty(t, result.Failures)

	var items int64
	env.db.Model(&entities.AvailabilityItem{}).Where("bid = ?", "1").Count(&items)
	assert.Equal(t, int64(1), items)
}

func TestRefreshSingleBook(t *testing.T) {
	env := setupTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalRecords": 0, "items": []}`))
	})

	w := env.do(t, http.MethodPost, "/api/books/123/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_copies":false`)
}

func TestListBooksWithLibraryFilter(t *testing.T) {
	env := setupTestEnv(t, nil)
	seedBookWithItems(t, env, 10, "1", "First",
		entities.AvailabilityItem{ItemNo: "I1", BranchName: "Bishan Public Library", Status: entities.StatusAvailable},
	)
	seedBookWithItems(t, env, 10, "2", "Second",
		entities.AvailabilityItem{ItemNo: "I2", BranchName: "Tampines Regional Library", Status: entities.StatusOnLoan},
	)

	w := env.do(t, http.MethodGet, "/api/users/10/books", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "First")
	assert.Contains(t, w.Body.String(), "Second")

	w = env.do(t, http.MethodGet, "/api/users/10/books?library=Bishan", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "First")
	assert.NotContains(t, w.Body.String(), "Second")
}

func TestGetSummary(t *testing.T) {
	env := setupTestEnv(t, nil)
	seedBookWithItems(t, env, 10, "1", "First",
		entities.AvailabilityItem{ItemNo: "I1", BranchName: "Bishan Public Library", Status: entities.StatusAvailable},
		entities.AvailabilityItem{ItemNo: "I2", BranchName: "Jurong West Public Library", Status: entities.StatusAvailable},
	)
	seedBookWithItems(t, env, 10, "2", "Never synced")

	w := env.do(t, http.MethodGet, "/api/users/10/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"First", "Never synced"}, resp.UniqueTitles)
	assert.Equal(t, []string{"First"}, resp.AvailableTitles)
	require.Len(t, resp.LibraryCounts, 2)
	assert.Equal(t, "Bishan", resp.LibraryCounts[0].Library)
}

func TestAddBookmark(t *testing.T) {
	env := setupTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "GetTitleDetails"):
			_, _ = w.Write([]byte(`{"brn": 14484799, "title": "Python for data analysis / Wes McKinney", "author": "McKinney, Wes"}`))
		default:
			_, _ = w.Write([]byte(`{"totalRecords": 0, "items": []}`))
		}
	})

	w := env.do(t, http.MethodPost, "/api/users/10/books", `{"bid": "14484799"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Python for data analysis")

	var count int64
	env.db.Model(&entities.Bookmark{}).Where("user_id = ? AND bid = ?", 10, "14484799").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRemoveBookmark(t *testing.T) {
	env := setupTestEnv(t, nil)
	seedBookWithItems(t, env, 10, "1", "First")

	w := env.do(t, http.MethodDelete, "/api/users/10/books/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, "/api/users/10/books/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch(t *testing.T) {
	env := setupTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalRecords": 45, "hasMoreRecords": true, "titles": [
			{"brn": 111, "title": "Learning Python", "author": "Lutz, Mark", "format": {"name": "Book"}}
		]}`))
	})

	w := env.do(t, http.MethodGet, "/api/search?q=python&offset=20", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 45, resp.TotalRecords)
	assert.Equal(t, 20, resp.CurrentOffset)
	assert.Equal(t, 0, resp.PreviousOffset)
	assert.Equal(t, 40, resp.NextOffset)
	assert.Equal(t, 40, resp.LastOffset)

	w = env.do(t, http.MethodGet, "/api/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchRateLimited(t *testing.T) {
	env := setupTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	w := env.do(t, http.MethodGet, "/api/search?q=python", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
