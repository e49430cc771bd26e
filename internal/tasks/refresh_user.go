package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/shelftrack/shelftrack/internal/sync"
)

// RefreshUserTask refreshes the availability of every book a user has
// bookmarked. One run per user at a time; a duplicate trigger while a run is
// active completes without retrying.
type RefreshUserTask struct {
	UserID uint `json:"user_id"`
}

// Config returns the queue configuration for bulk refresh tasks. A failed
// run is not retried automatically: retry policy against the shared upstream
// lives with the orchestrator, not the queue.
func (t RefreshUserTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_user",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshUserProcessor creates a processor function for RefreshUserTask.
func RefreshUserProcessor(orchestrator *sync.Orchestrator) backlite.QueueProcessor[RefreshUserTask] {
	return func(ctx context.Context, task RefreshUserTask) error {
		if orchestrator == nil {
			return fmt.Errorf("orchestrator not configured")
		}

		result, err := orchestrator.RefreshUser(ctx, task.UserID)
		if errors.Is(err, sync.ErrRunInProgress) {
			log.Printf("[TASK] user %d: refresh already running, trigger coalesced", task.UserID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("refresh user %d: %w", task.UserID, err)
		}

		logRunResult(task.UserID, result)
		return nil
	}
}

// NewRefreshUserQueue creates a backlite queue for bulk refresh tasks.
func NewRefreshUserQueue(orchestrator *sync.Orchestrator) backlite.Queue {
	return backlite.NewQueue(RefreshUserProcessor(orchestrator))
}

func logRunResult(userID uint, result *sync.RunResult) {
	if result.Continued {
		log.Printf("[TASK] user %d: %d books refreshed, %d handed to continuation",
			userID, result.BooksUpdated, result.Remaining)
		return
	}
	log.Printf("[TASK] user %d: refresh complete, %d books, %d failures",
		userID, result.BooksUpdated, len(result.Failures))
}
