package tags

import (
	"context"

	"github.com/google/uuid"
)

// Kind distinguishes the two reference-tag families.
type Kind string

const (
	KindCompany Kind = "company"
	KindKeyword Kind = "keyword"
)

// Tag is a canonical reference record. Tags are append-only: created
// lazily on first encounter and never updated or removed.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Repository is the persistence port for reference tags.
type Repository interface {
	// Upsert atomically finds or creates the tag with the given
	// canonical name and returns the surviving record.
	Upsert(ctx context.Context, kind Kind, name string) (Tag, error)
	// MatchIDs returns ids of tags whose name contains any of the
	// given terms, case-insensitively.
	MatchIDs(ctx context.Context, kind Kind, terms []string) ([]uuid.UUID, error)
}

// Resolver maps free-text tag names to canonical records, creating
// them when absent. Resolution is idempotent: repeated calls with any
// casing of the same name converge on a single record.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve normalizes name and performs an atomic find-or-create.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, name string) (Tag, error) {
	return r.repo.Upsert(ctx, kind, Canonical(kind, name))
}
