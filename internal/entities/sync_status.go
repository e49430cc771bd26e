package entities

import "time"

// SyncStatus tracks one user's bulk availability refresh. A row exists only
// while a run is active (or until it is cleared); BooksUpdated counts books
// whose refresh attempt finished, success or skip, and only ever grows within
// a run. Written exclusively by the run that created it.
type SyncStatus struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex" json:"user_id"`
	InProgress   bool      `json:"in_progress"`
	BooksUpdated int       `json:"books_updated"`
	TotalBooks   int       `json:"total_books"`
	CurrentTitle string    `gorm:"size:512" json:"current_title,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (SyncStatus) TableName() string {
	return "sync_status"
}
