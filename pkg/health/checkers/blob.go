package checkers

import (
	"context"
	"time"
)

// Pinger is satisfied by blob store backends that can verify
// connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type BlobChecker struct {
	store Pinger
}

func NewBlobChecker(store Pinger) *BlobChecker {
	return &BlobChecker{store: store}
}

func (c *BlobChecker) Name() string { return "blobstore" }

func (c *BlobChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.store.Ping(ctx)
}
