package resume

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/careerfair/resumebank/pkg/blob"
	"github.com/careerfair/resumebank/pkg/tags"
)

// UpdateInput carries caller-editable fields. Nil pointers leave the
// field untouched; supplied tag lists fully replace the existing ones.
type UpdateInput struct {
	Name           *string
	Major          *string
	GraduationYear *string
	Companies      *[]string
	Keywords       *[]string
}

// FileStream is an open download of a record's blob.
type FileStream struct {
	Reader   io.ReadCloser
	Size     int64
	Filename string
}

// UseCase describes the read, update and delete paths over active
// resume records.
type UseCase interface {
	Search(ctx context.Context, f SearchFilters) ([]Summary, error)
	Get(ctx context.Context, id uuid.UUID) (Detail, error)
	FilterValues(ctx context.Context) (FilterValues, error)
	StreamFile(ctx context.Context, id uuid.UUID) (FileStream, error)
	Update(ctx context.Context, actor Principal, id uuid.UUID, in UpdateInput) (Detail, error)
	Delete(ctx context.Context, actor Principal, id uuid.UUID) error
	DeleteAll(ctx context.Context, actor Principal) (int64, error)
}

// Service implements UseCase. Ingestion lives in Ingestor.
type Service struct {
	repo     Repository
	tagRepo  tags.Repository
	resolver *tags.Resolver
	blobs    blob.Store
	log      *slog.Logger
}

var _ UseCase = (*Service)(nil)

func NewService(repo Repository, tagRepo tags.Repository, resolver *tags.Resolver, blobs blob.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, tagRepo: tagRepo, resolver: resolver, blobs: blobs, log: log}
}

// Get returns the detail view of an active record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Detail, error) {
	rec, err := s.repo.GetActive(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return detail(rec), nil
}

// FilterValues lists distinct field values among active records.
func (s *Service) FilterValues(ctx context.Context) (FilterValues, error) {
	return s.repo.FilterValues(ctx)
}

// StreamFile opens the blob behind an active record. A record whose
// blob has gone missing is reported as not found, distinct from the
// record-level lookup: that is the orphan-metadata case.
func (s *Service) StreamFile(ctx context.Context, id uuid.UUID) (FileStream, error) {
	rec, err := s.repo.GetActive(ctx, id)
	if err != nil {
		return FileStream{}, err
	}
	if rec.BlobID == "" {
		return FileStream{}, &NotFoundError{Msg: "resume has no stored file"}
	}
	obj, err := s.blobs.Open(ctx, rec.BlobID)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return FileStream{}, &NotFoundError{Msg: "resume file is missing from storage"}
		}
		return FileStream{}, &StorageError{Stage: "file delivery", Err: err}
	}
	return FileStream{
		Reader:   obj.Reader,
		Size:     obj.Size,
		Filename: sanitizeFilename(rec.Name) + ".pdf",
	}, nil
}

// Update mutates metadata fields in place. Supplied company/keyword
// lists are re-resolved through the tag resolver; unlike ingestion the
// list is not deduplicated first, which is safe because resolution is
// idempotent and the reference set rejects duplicates. The blob is
// untouched.
func (s *Service) Update(ctx context.Context, actor Principal, id uuid.UUID, in UpdateInput) (Detail, error) {
	rec, err := s.repo.GetActive(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if !actor.Owns(rec) {
		return Detail{}, &PermissionError{Msg: "only the uploader or an admin may modify this resume"}
	}

	fields := UpdateFields{}
	if in.Name != nil {
		v := clampField(*in.Name)
		fields.Name = &v
	}
	if in.Major != nil {
		v := clampField(*in.Major)
		fields.Major = &v
	}
	if in.GraduationYear != nil {
		v := clampYear(*in.GraduationYear)
		fields.GraduationYear = &v
	}
	if in.Companies != nil {
		resolved, err := s.resolveStrict(ctx, tags.KindCompany, *in.Companies)
		if err != nil {
			return Detail{}, err
		}
		fields.Companies = &resolved
	}
	if in.Keywords != nil {
		resolved, err := s.resolveStrict(ctx, tags.KindKeyword, *in.Keywords)
		if err != nil {
			return Detail{}, err
		}
		fields.Keywords = &resolved
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return Detail{}, err
	}
	return detail(updated), nil
}

// Delete tombstones the record. The metadata flip and the cleanup-queue
// enqueue commit together; the blob itself is removed later by the
// cleanup worker.
func (s *Service) Delete(ctx context.Context, actor Principal, id uuid.UUID) error {
	rec, err := s.repo.GetActive(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Owns(rec) {
		return &PermissionError{Msg: "only the uploader or an admin may delete this resume"}
	}
	blobID, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	s.log.Info("resume tombstoned, blob queued for cleanup", "id", id, "blobId", blobID)
	return nil
}

// DeleteAll tombstones every active record in one bulk operation.
// Admin only.
func (s *Service) DeleteAll(ctx context.Context, actor Principal) (int64, error) {
	if !actor.IsAdmin {
		return 0, &PermissionError{Msg: "admin role required"}
	}
	count, err := s.repo.SoftDeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info("bulk delete tombstoned all active resumes", "count", count)
	return count, nil
}

func (s *Service) resolveStrict(ctx context.Context, kind tags.Kind, names []string) ([]tags.Tag, error) {
	var out []tags.Tag
	for _, name := range cleanTerms(names) {
		t, err := s.resolver.Resolve(ctx, kind, name)
		if err != nil {
			return nil, &DatabaseError{Stage: "tag resolution", Err: err}
		}
		out = append(out, t)
	}
	return out, nil
}

func detail(r Resume) Detail {
	return Detail{
		Summary:    summarize(r),
		UploadedBy: r.UploadedBy,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
