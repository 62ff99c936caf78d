package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/careerfair/resumebank/pkg/blob"
)

// RefChecker answers whether a blob id is still referenced by any
// metadata record, tombstoned or not.
type RefChecker interface {
	BlobReferenced(ctx context.Context, blobID string) (bool, error)
}

// Sweeper periodically compares blob-store contents against metadata
// references and reclaims unreferenced objects older than a grace
// period. This closes the window left by a crash between a blob write
// and its metadata commit, which the in-request compensation cannot
// cover.
type Sweeper struct {
	blobs    blob.Store
	refs     RefChecker
	grace    time.Duration
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(blobs blob.Store, refs RefChecker, grace, interval time.Duration, log *slog.Logger) *Sweeper {
	if grace <= 0 {
		grace = time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{blobs: blobs, refs: refs, grace: grace, interval: interval, log: log}
}

// Run loops until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.log.Error("sweep: aborted", "error", err)
			} else if n > 0 {
				s.log.Info("sweep: reclaimed orphan blobs", "count", n)
			}
		}
	}
}

// Sweep performs one pass and returns the number of blobs reclaimed.
// Per-blob failures are logged and skipped; the pass continues.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	infos, err := s.blobs.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-s.grace)
	reclaimed := 0
	for _, info := range infos {
		if info.LastModified.After(cutoff) {
			continue
		}
		referenced, err := s.refs.BlobReferenced(ctx, info.ID)
		if err != nil {
			s.log.Warn("sweep: reference check failed", "blobId", info.ID, "error", err)
			continue
		}
		if referenced {
			continue
		}
		if err := s.blobs.Delete(ctx, info.ID); err != nil {
			s.log.Warn("sweep: delete failed", "blobId", info.ID, "error", err)
			continue
		}
		reclaimed++
	}
	return reclaimed, nil
}
