// Package cleanup reclaims blobs that are no longer referenced by an
// active resume record. Soft deletes enqueue a task in the metadata
// store transaction; the worker drains the queue with retries so
// cleanup failures are visible and retried instead of merely logged
// once and forgotten.
package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/careerfair/resumebank/pkg/blob"
)

// Task is one pending blob deletion.
type Task struct {
	ID       int64
	BlobID   string
	Attempts int
}

// Queue is the persistence port for pending deletions.
type Queue interface {
	// Due returns up to limit tasks whose next attempt time has passed.
	Due(ctx context.Context, limit int) ([]Task, error)
	Done(ctx context.Context, id int64) error
	Retry(ctx context.Context, id int64, delay time.Duration) error
}

// Worker drains the cleanup queue on an interval. Each failed deletion
// is rescheduled with a growing delay until maxAttempts, after which
// the task is dropped with an error log. A dropped blob stays in
// storage: its tombstoned record still counts as a reference, so the
// orphan sweep will not reclaim it either. Recovery is the logged blob
// id plus a manual delete.
type Worker struct {
	queue       Queue
	blobs       blob.Store
	interval    time.Duration
	batchSize   int
	maxAttempts int
	log         *slog.Logger
}

func NewWorker(queue Queue, blobs blob.Store, interval time.Duration, log *slog.Logger) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		queue:       queue,
		blobs:       blobs,
		interval:    interval,
		batchSize:   50,
		maxAttempts: 10,
		log:         log,
	}
}

// Run loops until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain processes one batch of due tasks.
func (w *Worker) Drain(ctx context.Context) {
	tasks, err := w.queue.Due(ctx, w.batchSize)
	if err != nil {
		w.log.Error("cleanup: fetch due tasks", "error", err)
		return
	}
	for _, t := range tasks {
		if err := w.deleteBlob(ctx, t.BlobID); err != nil {
			if t.Attempts+1 >= w.maxAttempts {
				w.log.Error("cleanup: giving up on blob after max attempts",
					"blobId", t.BlobID, "attempts", t.Attempts+1, "error", err)
				if err := w.queue.Done(ctx, t.ID); err != nil {
					w.log.Error("cleanup: drop task", "taskId", t.ID, "error", err)
				}
				continue
			}
			delay := time.Duration(t.Attempts+1) * w.interval
			w.log.Warn("cleanup: blob delete failed, will retry",
				"blobId", t.BlobID, "attempts", t.Attempts+1, "error", err)
			if err := w.queue.Retry(ctx, t.ID, delay); err != nil {
				w.log.Error("cleanup: reschedule task", "taskId", t.ID, "error", err)
			}
			continue
		}
		if err := w.queue.Done(ctx, t.ID); err != nil {
			w.log.Error("cleanup: complete task", "taskId", t.ID, "error", err)
		}
	}
}

func (w *Worker) deleteBlob(ctx context.Context, blobID string) error {
	err := w.blobs.Delete(ctx, blobID)
	if errors.Is(err, blob.ErrNotFound) {
		// Already gone; the goal state is reached either way.
		return nil
	}
	return err
}
