package sync

import (
	"log"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// Notifier consumes the newly-available diff a reconcile produces. Delivery
// is owned by the implementation; the orchestrator only hands over the diff.
type Notifier interface {
	NewlyAvailable(bid string, items []entities.AvailabilityItem)
}

// NopNotifier discards diffs.
type NopNotifier struct{}

func (NopNotifier) NewlyAvailable(string, []entities.AvailabilityItem) {}

// LogNotifier writes diffs to the process log.
type LogNotifier struct{}

func (LogNotifier) NewlyAvailable(bid string, items []entities.AvailabilityItem) {
	for _, item := range items {
		log.Printf("[NOTIFY] book %s: item %s now available at %s", bid, item.ItemNo, item.BranchName)
	}
}
