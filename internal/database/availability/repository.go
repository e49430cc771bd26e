// Package availability provides database operations for per-copy loan status
// records.
//
// This package implements the reconcile.Store interface.
//
// # Interface Implementation
//
//	var _ reconcile.Store = (*Repository)(nil)
package availability

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// Repository handles availability item database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new availability repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAvailability returns the stored items for a BID, ordered by branch then
// item number for stable output.
func (r *Repository) GetAvailability(bid string) ([]entities.AvailabilityItem, error) {
	var items []entities.AvailabilityItem
	err := r.db.Where("bid = ?", bid).
		Order("branch_name ASC, item_no ASC").
		Find(&items).Error
	return items, err
}

// GetAvailabilityForBIDs returns the stored items for a set of BIDs.
func (r *Repository) GetAvailabilityForBIDs(bids []string) ([]entities.AvailabilityItem, error) {
	if len(bids) == 0 {
		return nil, nil
	}
	var items []entities.AvailabilityItem
	err := r.db.Where("bid IN ?", bids).
		Order("bid ASC, branch_name ASC, item_no ASC").
		Find(&items).Error
	return items, err
}

// ReplaceAvailability atomically replaces the stored item set for a BID:
// items present upstream are upserted by ItemNo, items absent upstream are
// deleted. The whole delta applies in a single transaction so no reader ever
// observes a half-updated set, and a failure leaves the prior state intact.
func (r *Repository) ReplaceAvailability(bid string, items []entities.AvailabilityItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(items) == 0 {
			return tx.Where("bid = ?", bid).Delete(&entities.AvailabilityItem{}).Error
		}

		keep := make([]string, 0, len(items))
		for _, item := range items {
			keep = append(keep, item.ItemNo)
		}
		if err := tx.Where("bid = ? AND item_no NOT IN ?", bid, keep).
			Delete(&entities.AvailabilityItem{}).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_no"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"bid", "branch_name", "call_number", "status", "due_date", "refreshed_at",
			}),
		}).Create(&items).Error
	})
}
