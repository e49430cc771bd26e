// Package reconcile brings stored availability records in line with an
// upstream snapshot.
//
// A reconcile is a replace-and-diff: items present upstream are upserted by
// ItemNo, stored items absent upstream are deleted, and the subset of items
// that transitioned into Available this run is reported so a notifier can
// act on it. The store applies the whole delta atomically per BID.
package reconcile

import (
	"fmt"
	"time"

	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/entities"
)

// Store is the slice of the record store the reconciler writes through.
// ReplaceAvailability must apply as a single atomic unit per BID.
type Store interface {
	GetAvailability(bid string) ([]entities.AvailabilityItem, error)
	ReplaceAvailability(bid string, items []entities.AvailabilityItem) error
}

// Result describes the outcome of one reconcile.
type Result struct {
	// Items is the stored set after the reconcile, mirroring the snapshot.
	Items []entities.AvailabilityItem
	// NewlyAvailable holds the items whose status transitioned into
	// Available during this run. Items that were already Available before
	// are excluded even though they remain Available.
	NewlyAvailable []entities.AvailabilityItem
	// Inserted, Updated and Deleted count the applied delta.
	Inserted int
	Updated  int
	Deleted  int
}

// Reconciler applies upstream availability snapshots to the record store.
type Reconciler struct {
	store Store
	now   func() time.Time
}

// NewReconciler creates a reconciler writing through the given store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Reconcile replaces the stored item set for a BID with the upstream
// snapshot. An empty snapshot means the book currently has no copies and
// removes every stored item; it is not an error. On a store failure the
// prior state is left untouched and the error is surfaced.
func (r *Reconciler) Reconcile(bid string, snapshot *catalogue.AvailabilitySnapshot) (*Result, error) {
	stored, err := r.store.GetAvailability(bid)
	if err != nil {
		return nil, fmt.Errorf("load stored availability for %s: %w", bid, err)
	}

	prior := make(map[string]entities.AvailabilityItem, len(stored))
	for _, item := range stored {
		prior[item.ItemNo] = item
	}

	refreshedAt := r.now()
	result := &Result{}
	items := make([]entities.AvailabilityItem, 0, len(snapshot.Items))
	upstream := make(map[string]struct{}, len(snapshot.Items))

	for _, up := range snapshot.Items {
		item := entities.AvailabilityItem{
			ItemNo:      up.ItemNo,
			BID:         bid,
			BranchName:  up.BranchName,
			CallNumber:  up.CallNumber,
			Status:      up.Status,
			DueDate:     up.DueDate,
			RefreshedAt: refreshedAt,
		}
		items = append(items, item)
		upstream[up.ItemNo] = struct{}{}

		previous, existed := prior[up.ItemNo]
		if existed {
			result.Updated++
		} else {
			result.Inserted++
		}
		if item.Status == entities.StatusAvailable &&
			(!existed || previous.Status != entities.StatusAvailable) {
			result.NewlyAvailable = append(result.NewlyAvailable, item)
		}
	}

	for itemNo := range prior {
		if _, ok := upstream[itemNo]; !ok {
			result.Deleted++
		}
	}

	if err := r.store.ReplaceAvailability(bid, items); err != nil {
		return nil, fmt.Errorf("replace availability for %s: %w", bid, err)
	}

	result.Items = items
	return result, nil
}
