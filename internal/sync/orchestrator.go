// Package sync drives single-book and bulk per-user availability refreshes
// against the rate-limited catalogue.
//
// A bulk run is a single sequential worker: the pacing sleep before each
// catalogue call is the only throttle against the upstream budget. Per-book
// failures are counted and skipped, never abort the run. Runs too large for
// one invocation hand their remainder to a continuation scheduler that keeps
// the same pacing and back-off discipline.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/reconcile"
)

// ErrRunInProgress is the status store's rejection of a second
// concurrent run for the same user.
var ErrRunInProgress = errors.New("a refresh run is already in progress for this user")

// Catalogue is the slice of the catalogue client the orchestrator calls.
type Catalogue interface {
	GetAvailability(ctx context.Context, bid string) (*catalogue.AvailabilitySnapshot, error)
}

// BookmarkStore lists the books a bulk run must visit.
type BookmarkStore interface {
	GetBookmarkedBIDs(userID uint) ([]string, error)
	GetBook(bid string) (*entities.Book, error)
}

// StatusStore persists per-user run progress. Start must reject a second
// concurrent run for the same user.
type StatusStore interface {
	Start(userID uint, totalBooks int) error
	Update(userID uint, booksUpdated int, currentTitle string) error
	Clear(userID uint) error
}

// Continuer schedules a follow-up run for the books a single invocation
// could not cover.
type Continuer interface {
	ScheduleContinuation(ctx context.Context, userID uint, remaining []string, processed int) error
}

// Config holds the pacing discipline for bulk runs.
type Config struct {
	// PaceInterval is the sleep before each per-book catalogue call.
	PaceInterval time.Duration
	// RateLimitBackoff is the wait after a 429 before the single retry.
	RateLimitBackoff time.Duration
	// BatchSize caps the books one invocation processes; the remainder is
	// handed to the continuer. Zero means no cap.
	BatchSize int
}

// DefaultConfig matches the upstream catalogue's approximate
// one-request-per-second budget.
func DefaultConfig() Config {
	return Config{
		PaceInterval:     time.Second,
		RateLimitBackoff: 2 * time.Second,
		BatchSize:        50,
	}
}

// BookFailure records one book a run could not refresh.
type BookFailure struct {
	BID    string `json:"bid"`
	Reason string `json:"reason"`
}

// RunResult summarizes one bulk-run invocation.
type RunResult struct {
	BooksUpdated int           `json:"books_updated"`
	Failures     []BookFailure `json:"failures,omitempty"`
	// Continued is set when the invocation hit its batch cap and scheduled
	// a follow-up run for Remaining books.
	Continued bool `json:"continued,omitempty"`
	Remaining int  `json:"remaining,omitempty"`
}

// Orchestrator coordinates catalogue calls, reconciles and progress writes.
type Orchestrator struct {
	catalogue  Catalogue
	reconciler *reconcile.Reconciler
	bookmarks  BookmarkStore
	status     StatusStore
	notifier   Notifier
	continuer  Continuer
	cfg        Config
}

// NewOrchestrator creates an orchestrator. Notifier and continuer are
// optional; without a continuer oversized runs process everything in one
// invocation.
func NewOrchestrator(cat Catalogue, rec *reconcile.Reconciler, bookmarks BookmarkStore, status StatusStore, cfg Config) *Orchestrator {
	if cfg.PaceInterval <= 0 {
		cfg.PaceInterval = DefaultConfig().PaceInterval
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = DefaultConfig().RateLimitBackoff
	}
	return &Orchestrator{
		catalogue:  cat,
		reconciler: rec,
		bookmarks:  bookmarks,
		status:     status,
		notifier:   NopNotifier{},
		cfg:        cfg,
	}
}

// SetNotifier sets the consumer of newly-available diffs.
func (o *Orchestrator) SetNotifier(n Notifier) {
	if n != nil {
		o.notifier = n
	}
}

// SetContinuer sets the follow-up scheduler for oversized runs.
func (o *Orchestrator) SetContinuer(c Continuer) {
	o.continuer = c
}

// RefreshOne refreshes a single book. A 429 is retried exactly once after a
// fixed back-off; a second 429 fails the book. NotFound reconciles with an
// empty snapshot, removing local data to match a title that no longer
// circulates. Returns whether the refresh produced any availability data.
func (o *Orchestrator) RefreshOne(ctx context.Context, bid string) (bool, error) {
	snapshot, err := o.catalogue.GetAvailability(ctx, bid)
	if errors.Is(err, catalogue.ErrRateLimited) {
		if err = o.sleep(ctx, o.cfg.RateLimitBackoff); err != nil {
			return false, err
		}
		snapshot, err = o.catalogue.GetAvailability(ctx, bid)
	}

	switch {
	case errors.Is(err, catalogue.ErrNotFound):
		snapshot = &catalogue.AvailabilitySnapshot{BID: bid}
	case err != nil:
		return false, err
	}

	result, err := o.reconciler.Reconcile(bid, snapshot)
	if err != nil {
		return false, err
	}

	if len(result.NewlyAvailable) > 0 {
		o.notifier.NewlyAvailable(bid, result.NewlyAvailable)
	}
	return len(result.Items) > 0, nil
}

// RefreshUser starts a bulk run over every book the user has bookmarked.
// Returns ErrRunInProgress when the user already has an active run.
func (o *Orchestrator) RefreshUser(ctx context.Context, userID uint) (*RunResult, error) {
	bids, err := o.bookmarks.GetBookmarkedBIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarked books: %w", err)
	}

	if err := o.status.Start(userID, len(bids)); err != nil {
		return nil, err
	}

	return o.runBatch(ctx, userID, bids, 0)
}

// ContinueRefresh resumes a bulk run from a continuation task. The status row
// from the original invocation is still in progress; processed carries the
// counter forward so a poller keeps seeing a non-decreasing value.
func (o *Orchestrator) ContinueRefresh(ctx context.Context, userID uint, bids []string, processed int) (*RunResult, error) {
	return o.runBatch(ctx, userID, bids, processed)
}

func (o *Orchestrator) runBatch(ctx context.Context, userID uint, bids []string, processed int) (*RunResult, error) {
	batch := bids
	var remaining []string
	if o.continuer != nil && o.cfg.BatchSize > 0 && len(bids) > o.cfg.BatchSize {
		batch = bids[:o.cfg.BatchSize]
		remaining = bids[o.cfg.BatchSize:]
	}

	result := &RunResult{}
	for _, bid := range batch {
		if err := o.sleep(ctx, o.cfg.PaceInterval); err != nil {
			// Run aborted; clear the status so a later trigger can start over.
			if clearErr := o.status.Clear(userID); clearErr != nil {
				log.Printf("[SYNC] user %d: failed to clear status after abort: %v", userID, clearErr)
			}
			return result, err
		}

		if _, err := o.RefreshOne(ctx, bid); err != nil {
			if ctx.Err() != nil {
				if clearErr := o.status.Clear(userID); clearErr != nil {
					log.Printf("[SYNC] user %d: failed to clear status after abort: %v", userID, clearErr)
				}
				return result, ctx.Err()
			}
			result.Failures = append(result.Failures, BookFailure{BID: bid, Reason: err.Error()})
			log.Printf("[SYNC] user %d: book %s skipped: %v", userID, bid, err)
		}

		// Progress moves strictly after each book's attempt, success or skip.
		processed++
		result.BooksUpdated++
		if err := o.status.Update(userID, processed, o.bookTitle(bid)); err != nil {
			log.Printf("[SYNC] user %d: failed to record progress: %v", userID, err)
		}
	}

	if len(remaining) > 0 {
		if err := o.continuer.ScheduleContinuation(ctx, userID, remaining, processed); err != nil {
			if clearErr := o.status.Clear(userID); clearErr != nil {
				log.Printf("[SYNC] user %d: failed to clear status: %v", userID, clearErr)
			}
			return result, fmt.Errorf("schedule continuation: %w", err)
		}
		result.Continued = true
		result.Remaining = len(remaining)
		log.Printf("[SYNC] user %d: batch of %d done, %d books continued", userID, len(batch), len(remaining))
		return result, nil
	}

	if err := o.status.Clear(userID); err != nil {
		return result, fmt.Errorf("clear sync status: %w", err)
	}
	log.Printf("[SYNC] user %d: run complete, %d books, %d failures",
		userID, result.BooksUpdated, len(result.Failures))
	return result, nil
}

func (o *Orchestrator) bookTitle(bid string) string {
	book, err := o.bookmarks.GetBook(bid)
	if err != nil || book == nil {
		return bid
	}
	return book.Title
}

// sleep is a cooperative wait honouring context cancellation.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
