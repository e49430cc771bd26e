package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/shelftrack/shelftrack/internal/sync"
)

// ContinueRefreshTask resumes a bulk refresh that could not finish within one
// invocation. It carries the remaining BIDs and the progress counter so the
// resumed batch reports monotonically increasing progress.
type ContinueRefreshTask struct {
	UserID    uint     `json:"user_id"`
	BIDs      []string `json:"bids"`
	Processed int      `json:"processed"`
}

// Config returns the queue configuration for continuation tasks.
func (t ContinueRefreshTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "continue_refresh",
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

// ContinueRefreshProcessor creates a processor function for
// ContinueRefreshTask.
func ContinueRefreshProcessor(orchestrator *sync.Orchestrator) backlite.QueueProcessor[ContinueRefreshTask] {
	return func(ctx context.Context, task ContinueRefreshTask) error {
		if orchestrator == nil {
			return fmt.Errorf("orchestrator not configured")
		}

		result, err := orchestrator.ContinueRefresh(ctx, task.UserID, task.BIDs, task.Processed)
		if err != nil {
			return fmt.Errorf("continue refresh for user %d: %w", task.UserID, err)
		}

		logRunResult(task.UserID, result)
		return nil
	}
}

// NewContinueRefreshQueue creates a backlite queue for continuation tasks.
func NewContinueRefreshQueue(orchestrator *sync.Orchestrator) backlite.Queue {
	return backlite.NewQueue(ContinueRefreshProcessor(orchestrator))
}

// Continuer hands oversized runs back to the queue as continuation tasks.
//
// # Interface Implementation
//
//	var _ sync.Continuer = (*Continuer)(nil)
type Continuer struct {
	client *Client
}

// NewContinuer creates a continuation scheduler backed by the task queue.
func NewContinuer(client *Client) *Continuer {
	return &Continuer{client: client}
}

// ScheduleContinuation enqueues the remaining books of a bulk run.
func (c *Continuer) ScheduleContinuation(ctx context.Context, userID uint, remaining []string, processed int) error {
	_, err := c.client.Add(ContinueRefreshTask{
		UserID:    userID,
		BIDs:      remaining,
		Processed: processed,
	}).Ctx(ctx).Save()
	return err
}
