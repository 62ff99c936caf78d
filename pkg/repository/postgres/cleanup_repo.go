package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careerfair/resumebank/pkg/cleanup"
)

// CleanupQueueRepository persists pending blob deletions. Tasks are
// enqueued by the resume repository inside the soft-delete transaction
// and drained by the cleanup worker.
type CleanupQueueRepository struct {
	pool *pgxpool.Pool
}

func NewCleanupQueueRepository(pool *pgxpool.Pool) (*CleanupQueueRepository, error) {
	r := &CleanupQueueRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *CleanupQueueRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS blob_cleanup_tasks (
	id BIGSERIAL PRIMARY KEY,
	blob_id TEXT NOT NULL,
	attempts INT NOT NULL DEFAULT 0,
	next_attempt_at TIMESTAMPTZ NOT NULL,
	enqueued_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blob_cleanup_due ON blob_cleanup_tasks(next_attempt_at);
`)
	return err
}

func (r *CleanupQueueRepository) Due(ctx context.Context, limit int) ([]cleanup.Task, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, blob_id, attempts
FROM blob_cleanup_tasks
WHERE next_attempt_at <= $1
ORDER BY next_attempt_at
LIMIT $2
`, time.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []cleanup.Task
	for rows.Next() {
		var t cleanup.Task
		if err := rows.Scan(&t.ID, &t.BlobID, &t.Attempts); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *CleanupQueueRepository) Done(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM blob_cleanup_tasks WHERE id = $1`, id)
	return err
}

func (r *CleanupQueueRepository) Retry(ctx context.Context, id int64, delay time.Duration) error {
	_, err := r.pool.Exec(ctx, `
UPDATE blob_cleanup_tasks
SET attempts = attempts + 1, next_attempt_at = $2
WHERE id = $1
`, id, time.Now().UTC().Add(delay))
	return err
}
