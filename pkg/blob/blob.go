// Package blob defines the binary object storage port used for resume
// files. Objects are addressed by generated ids; writes are append-only
// and deletes are explicit.
package blob

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no object exists under the given id.
var ErrNotFound = errors.New("blob not found")

// Object is an open handle to stored bytes. The caller owns Reader and
// must close it.
type Object struct {
	Reader      io.ReadCloser
	Size        int64
	ContentType string
}

// Info describes a stored object without opening it.
type Info struct {
	ID           string
	Size         int64
	LastModified time.Time
}

// Store is the binary object storage port.
type Store interface {
	Put(ctx context.Context, id string, data []byte, contentType string) error
	Open(ctx context.Context, id string) (Object, error)
	Delete(ctx context.Context, id string) error
	// List enumerates all stored objects. Used by the orphan sweep.
	List(ctx context.Context) ([]Info, error)
}

// NewID builds a fresh object id for an upload. The filename suffix is
// informational only; uniqueness comes from the UUID prefix.
func NewID(filename string) string {
	return uuid.NewString() + "/" + filename
}
