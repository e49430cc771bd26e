// Package scheduler triggers periodic availability refreshes.
package scheduler

import (
	"context"
	"fmt"
	"log"
	gosync "sync"

	"github.com/robfig/cron/v3"

	"github.com/shelftrack/shelftrack/internal/tasks"
)

// UserLister returns the users that have something to refresh.
type UserLister interface {
	GetUserIDsWithBookmarks() ([]uint, error)
}

// RefreshScheduler enqueues a bulk refresh task per user on a cron schedule.
// The actual pacing against the catalogue happens inside each run; the
// scheduler only fans the work out to the queue.
type RefreshScheduler struct {
	users  UserLister
	queue  *tasks.Client
	spec   string
	cron   *cron.Cron
	cancel context.CancelFunc

	mu        gosync.Mutex
	isRunning bool
}

// NewRefreshScheduler creates a scheduler with a standard 5-field cron spec.
func NewRefreshScheduler(users UserLister, queue *tasks.Client, spec string) *RefreshScheduler {
	return &RefreshScheduler{
		users: users,
		queue: queue,
		spec:  spec,
		cron:  cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the schedule. Safe to call once; subsequent calls are no-ops.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.enqueueAll); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.spec, err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancel = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true
	log.Printf("Refresh scheduler started with schedule %q", s.spec)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the schedule and waits for an in-flight trigger to finish.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	log.Printf("Refresh scheduler stopped")
}

func (s *RefreshScheduler) enqueueAll() {
	userIDs, err := s.users.GetUserIDsWithBookmarks()
	if err != nil {
		log.Printf("Refresh scheduler: listing users failed: %v", err)
		return
	}

	for _, userID := range userIDs {
		if _, err := s.queue.Add(tasks.RefreshUserTask{UserID: userID}).Save(); err != nil {
			log.Printf("Refresh scheduler: enqueue for user %d failed: %v", userID, err)
		}
	}
	log.Printf("Refresh scheduler: enqueued refresh for %d users", len(userIDs))
}
