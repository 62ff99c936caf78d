package resume

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careerfair/resumebank/pkg/tags"
)

// Resume is the metadata record for an uploaded PDF. While IsActive is
// true, BlobID references retrievable bytes in the blob store. A record
// with IsActive=false is a tombstone: kept for audit, invisible to all
// reads, its blob reclaimed asynchronously.
type Resume struct {
	ID             uuid.UUID
	Name           string
	Major          string
	GraduationYear string
	BlobID         string
	UploadedBy     uuid.UUID
	Companies      []tags.Tag
	Keywords       []tags.Tag
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Principal is the authenticated caller supplied by the identity layer.
type Principal struct {
	ID      uuid.UUID
	IsAdmin bool
}

// Owns reports whether p may mutate the given record.
func (p Principal) Owns(r Resume) bool {
	return p.IsAdmin || (p.ID != uuid.Nil && p.ID == r.UploadedBy)
}

// Summary is the response projection used in search results and upload
// confirmations. FileURL is derived from the record id, not the blob id.
type Summary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Major          string    `json:"major"`
	GraduationYear string    `json:"graduationYear"`
	FileURL        string    `json:"fileUrl"`
	Companies      []string  `json:"companies"`
	Keywords       []string  `json:"keywords"`
}

// Detail extends Summary with audit fields for single-record reads.
type Detail struct {
	Summary
	UploadedBy uuid.UUID `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FilterValues lists the distinct field values among active records,
// used to populate search filter dropdowns.
type FilterValues struct {
	Majors          []string `json:"majors"`
	GraduationYears []string `json:"graduationYears"`
	Companies       []string `json:"companies"`
	Keywords        []string `json:"keywords"`
}

// UpdateFields carries the mutable columns of a record. Nil means "leave
// unchanged"; tag slices replace the whole reference list when set.
type UpdateFields struct {
	Name           *string
	Major          *string
	GraduationYear *string
	Companies      *[]tags.Tag
	Keywords       *[]tags.Tag
}

// SearchSpec is the compiled, store-ready form of a search request.
// Tag names have already been resolved to ids; HasCompanyFilter /
// HasKeywordFilter distinguish "no filter" from "filter matched zero".
type SearchSpec struct {
	Query            string
	Name             string
	Majors           []string
	GraduationYears  []string
	CompanyIDs       []uuid.UUID
	KeywordIDs       []uuid.UUID
	HasCompanyFilter bool
	HasKeywordFilter bool
}

// Repository is the metadata store port. Multi-record writes are atomic
// within the implementation (a single store-local transaction).
type Repository interface {
	Create(ctx context.Context, r Resume) error
	GetActive(ctx context.Context, id uuid.UUID) (Resume, error)
	Search(ctx context.Context, spec SearchSpec) ([]Resume, error)
	FilterValues(ctx context.Context) (FilterValues, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (Resume, error)
	// SoftDelete flips IsActive and enqueues the blob for cleanup in
	// one transaction, returning the detached blob id.
	SoftDelete(ctx context.Context, id uuid.UUID) (string, error)
	// SoftDeleteAll tombstones every active record, returning how many.
	SoftDeleteAll(ctx context.Context) (int64, error)
	// BlobReferenced reports whether any record (active or not) still
	// points at the given blob id. Used by the orphan sweep.
	BlobReferenced(ctx context.Context, blobID string) (bool, error)
}
