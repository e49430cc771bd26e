// Package books provides database operations for shared book records and the
// user bookmark relation.
//
// Book rows are keyed by the upstream BID and shared between every user who
// bookmarks the title; a row survives until the last bookmark referencing it
// is removed.
package books

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// ErrAlreadyBookmarked is returned when a user bookmarks a BID twice.
var ErrAlreadyBookmarked = errors.New("book already bookmarked")

// Repository handles book and bookmark database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertBook inserts the shared book record, or refreshes its attributes when
// a row for the BID already exists.
func (r *Repository) UpsertBook(book *entities.Book) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "author", "publish_year", "publisher", "subjects", "isbns", "updated_at",
		}),
	}).Create(book).Error
}

// GetBook retrieves a book by BID.
func (r *Repository) GetBook(bid string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, "bid = ?", bid).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBooks retrieves every book a user has bookmarked, in bookmark order.
func (r *Repository) GetBooks(userID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.
		Joins("JOIN bookmarks ON bookmarks.bid = books.bid").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at ASC, bookmarks.id ASC").
		Find(&books).Error
	return books, err
}

// AddBookmark links a user to a BID.
func (r *Repository) AddBookmark(userID uint, bid string) error {
	var existing entities.Bookmark
	err := r.db.Where("user_id = ? AND bid = ?", userID, bid).First(&existing).Error
	if err == nil {
		return ErrAlreadyBookmarked
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(&entities.Bookmark{UserID: userID, BID: bid}).Error
}

// RemoveBookmark unlinks a user from a BID. When no bookmark references the
// book anymore, the shared book row and its availability items are removed
// with it, in one transaction.
func (r *Repository) RemoveBookmark(userID uint, bid string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND bid = ?", userID, bid).Delete(&entities.Bookmark{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var remaining int64
		if err := tx.Model(&entities.Bookmark{}).Where("bid = ?", bid).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		if err := tx.Where("bid = ?", bid).Delete(&entities.AvailabilityItem{}).Error; err != nil {
			return err
		}
		return tx.Where("bid = ?", bid).Delete(&entities.Book{}).Error
	})
}

// GetBookmarkedBIDs returns a user's bookmarked BIDs in the order the
// bookmarks were created. A bulk refresh walks this exact order.
func (r *Repository) GetBookmarkedBIDs(userID uint) ([]string, error) {
	var bids []string
	err := r.db.Model(&entities.Bookmark{}).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Pluck("bid", &bids).Error
	return bids, err
}

// IsBookmarked reports whether the user already tracks the BID.
func (r *Repository) IsBookmarked(userID uint, bid string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Bookmark{}).
		Where("user_id = ? AND bid = ?", userID, bid).
		Count(&count).Error
	return count > 0, err
}

// CountBookmarks returns the number of books a user tracks.
func (r *Repository) CountBookmarks(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Bookmark{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// GetUserIDsWithBookmarks returns every user that tracks at least one book.
func (r *Repository) GetUserIDsWithBookmarks() ([]uint, error) {
	var userIDs []uint
	err := r.db.Model(&entities.Bookmark{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}
