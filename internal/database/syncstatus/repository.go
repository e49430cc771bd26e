// Package syncstatus provides database operations for per-user bulk refresh
// progress rows.
//
// This package implements the sync.StatusStore interface.
//
// # Interface Implementation
//
//	var _ sync.StatusStore = (*Repository)(nil)
package syncstatus

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/sync"
)

// staleThreshold is how long a running row may go without an update before a
// new run may take it over. Guards against rows orphaned by a crashed run.
const staleThreshold = 10 * time.Minute

// Repository handles sync status database operations. Each user has at most
// one row, written only by that user's active run.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sync status repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves the sync status row for a user, or nil when no run has been
// recorded.
func (r *Repository) Get(userID uint) (*entities.SyncStatus, error) {
	var status entities.SyncStatus
	err := r.db.Where("user_id = ?", userID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Start marks a run as in progress with the counter reset to zero. It fails
// with sync.ErrRunInProgress when a non-stale run is already active for the
// user.
func (r *Repository) Start(userID uint, totalBooks int) error {
	now := time.Now()

	return r.db.Transaction(func(tx *gorm.DB) error {
		var status entities.SyncStatus
		err := tx.Where("user_id = ?", userID).First(&status).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&entities.SyncStatus{
				UserID:     userID,
				InProgress: true,
				TotalBooks: totalBooks,
				StartedAt:  now,
				UpdatedAt:  now,
			}).Error
		}
		if err != nil {
			return err
		}

		if status.InProgress && status.UpdatedAt.After(now.Add(-staleThreshold)) {
			return sync.ErrRunInProgress
		}

		status.InProgress = true
		status.BooksUpdated = 0
		status.TotalBooks = totalBooks
		status.CurrentTitle = ""
		status.StartedAt = now
		status.UpdatedAt = now
		return tx.Save(&status).Error
	})
}

// Update records progress after one book's refresh attempt completed. The
// counter is set, not incremented, so a continuation run can carry it
// forward; callers only ever pass non-decreasing values within one run.
func (r *Repository) Update(userID uint, booksUpdated int, currentTitle string) error {
	return r.db.Model(&entities.SyncStatus{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"books_updated": booksUpdated,
			"current_title": currentTitle,
			"updated_at":    time.Now(),
		}).Error
}

// Clear marks the run finished. The row is deleted so a poller sees
// InProgress transition back to false exactly once per run.
func (r *Repository) Clear(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&entities.SyncStatus{}).Error
}
