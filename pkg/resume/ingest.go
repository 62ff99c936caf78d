package resume

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/careerfair/resumebank/pkg/blob"
	"github.com/careerfair/resumebank/pkg/tags"
)

const (
	// DefaultMaxUploadBytes is the upload ceiling when none is configured.
	DefaultMaxUploadBytes = 10 << 20

	pdfMagic    = "%PDF"
	unspecified = "Unspecified"
	maxFieldLen = 255
	truncateAt  = 252
	maxTags     = 100
)

var reUnsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// UploadInput is the raw material of one ingestion: file bytes, the
// uploading principal and optional caller-supplied metadata overrides.
type UploadInput struct {
	Filename       string
	Data           []byte
	UploadedBy     uuid.UUID
	Name           string
	Major          string
	GraduationYear string
	Companies      []string
	Keywords       []string
}

// UploadResult is the success response of an ingestion. ParsingWarning
// is non-nil when extraction failed and fallback metadata was used.
type UploadResult struct {
	Summary
	ParsingWarning *string `json:"parsingWarning"`
}

// IngestUseCase describes the write path of the pipeline.
type IngestUseCase interface {
	Ingest(ctx context.Context, in UploadInput) (UploadResult, error)
}

// Ingestor coordinates extraction, validation, blob upload, tag
// resolution and the metadata commit as one logical operation. The blob
// write and the metadata transaction live in different stores, so the
// pipeline is a compensating-action sequence: each stage may declare an
// undo, and on failure the undos of completed stages run in reverse.
type Ingestor struct {
	blobs    blob.Store
	repo     Repository
	resolver *tags.Resolver
	extract  Extractor
	maxBytes int64
	log      *slog.Logger
}

func NewIngestor(blobs blob.Store, repo Repository, resolver *tags.Resolver, extract Extractor, maxBytes int64, log *slog.Logger) *Ingestor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{blobs: blobs, repo: repo, resolver: resolver, extract: extract, maxBytes: maxBytes, log: log}
}

type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context)
}

// runSaga executes steps in order. On failure it runs the compensations
// of every completed step in reverse. Compensation failures are logged
// by the compensations themselves and never surfaced.
func runSaga(ctx context.Context, steps []sagaStep) error {
	var done []sagaStep
	for _, st := range steps {
		if err := st.run(ctx); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].compensate != nil {
					done[i].compensate(ctx)
				}
			}
			return err
		}
		done = append(done, st)
	}
	return nil
}

// Ingest runs the upload pipeline. On success exactly one blob and one
// record exist; on failure after the blob write the blob is deleted
// best-effort before the error is returned.
func (s *Ingestor) Ingest(ctx context.Context, in UploadInput) (UploadResult, error) {
	var (
		meta      Metadata
		warning   *string
		rec       Resume
		companies []string
		keywords  []string
	)

	steps := []sagaStep{
		{
			name: "validate",
			run: func(ctx context.Context) error {
				return s.validate(in)
			},
		},
		{
			name: "extract",
			run: func(ctx context.Context) error {
				stem := filenameStem(in.Filename)
				m, err := s.extract.Extract(ctx, in.Filename, in.Data)
				if err != nil {
					s.log.Warn("content extraction failed, using fallback metadata",
						"filename", in.Filename, "error", err)
					msg := fmt.Sprintf("failed to parse resume content: %v", err)
					warning = &msg
					m = Metadata{Name: stem, Major: unspecified, GraduationYear: unspecified}
				}
				meta = m
				return nil
			},
		},
		{
			name: "normalize",
			run: func(ctx context.Context) error {
				stem := filenameStem(in.Filename)
				rec = Resume{
					ID:             uuid.New(),
					Name:           clampField(firstNonEmpty(in.Name, meta.Name, stem)),
					Major:          clampField(firstNonEmpty(in.Major, meta.Major, unspecified)),
					GraduationYear: clampYear(firstNonEmpty(in.GraduationYear, meta.GraduationYear, unspecified)),
					UploadedBy:     in.UploadedBy,
					IsActive:       true,
				}
				companies = dedupeCap(append(in.Companies, meta.Companies...))
				keywords = dedupeCap(append(in.Keywords, meta.Keywords...))
				return nil
			},
		},
		{
			name: "blob upload",
			run: func(ctx context.Context) error {
				rec.BlobID = blob.NewID(sanitizeFilename(in.Filename))
				if err := s.blobs.Put(ctx, rec.BlobID, in.Data, "application/pdf"); err != nil {
					return &StorageError{Stage: "blob upload", Err: err}
				}
				return nil
			},
			compensate: func(ctx context.Context) {
				if err := s.blobs.Delete(ctx, rec.BlobID); err != nil {
					s.log.Error("compensation failed: orphan blob left behind",
						"blobId", rec.BlobID, "error", err)
				}
			},
		},
		{
			name: "tag resolution",
			run: func(ctx context.Context) error {
				rec.Companies = s.resolveAll(ctx, tags.KindCompany, companies)
				rec.Keywords = s.resolveAll(ctx, tags.KindKeyword, keywords)
				return nil
			},
		},
		{
			name: "metadata commit",
			run: func(ctx context.Context) error {
				// Repository errors already carry the taxonomy type.
				return s.repo.Create(ctx, rec)
			},
		},
	}

	if err := runSaga(ctx, steps); err != nil {
		return UploadResult{}, err
	}
	return UploadResult{Summary: summarize(rec), ParsingWarning: warning}, nil
}

func (s *Ingestor) validate(in UploadInput) error {
	if len(in.Data) == 0 {
		return &ValidationError{Msg: "file is required and must not be empty"}
	}
	if int64(len(in.Data)) > s.maxBytes {
		return &ValidationError{Msg: fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes)}
	}
	if len(in.Data) < len(pdfMagic) || string(in.Data[:len(pdfMagic)]) != pdfMagic {
		return &ValidationError{Msg: "file is not a PDF"}
	}
	return nil
}

// resolveAll resolves tag names one by one. A failed resolution is
// logged and skipped so the record is still created with whatever tags
// did resolve.
func (s *Ingestor) resolveAll(ctx context.Context, kind tags.Kind, names []string) []tags.Tag {
	var out []tags.Tag
	for _, name := range names {
		t, err := s.resolver.Resolve(ctx, kind, name)
		if err != nil {
			s.log.Warn("tag resolution failed, skipping",
				"kind", string(kind), "name", name, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out
}

func summarize(r Resume) Summary {
	return Summary{
		ID:             r.ID,
		Name:           r.Name,
		Major:          r.Major,
		GraduationYear: r.GraduationYear,
		FileURL:        FileURL(r.ID),
		Companies:      tagNames(r.Companies),
		Keywords:       tagNames(r.Keywords),
	}
}

// FileURL is the deterministic download reference for a record.
func FileURL(id uuid.UUID) string {
	return "/api/v1/resumes/" + id.String() + "/file"
}

func tagNames(ts []tags.Tag) []string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		names = append(names, t.Name)
	}
	return names
}

func filenameStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sanitizeFilename(filename string) string {
	return reUnsafeFilename.ReplaceAllString(filepath.Base(filename), "_")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// clampField truncates overlong values on a rune boundary, keeping 252
// characters plus an ellipsis marker so the stored value stays within
// 255. Byte slicing would split multi-byte runes and produce strings
// the metadata store rejects.
func clampField(v string) string {
	if utf8.RuneCountInString(v) <= maxFieldLen {
		return v
	}
	runes := []rune(v)
	return string(runes[:truncateAt]) + "..."
}

// clampYear replaces rather than truncates: a year string longer than
// 255 characters is never meaningful.
func clampYear(v string) string {
	if utf8.RuneCountInString(v) <= maxFieldLen {
		return v
	}
	return unspecified
}

// dedupeCap removes case-sensitive exact duplicates, preserving first
// occurrence order, and discards everything past the cap.
func dedupeCap(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		if len(out) == maxTags {
			break
		}
	}
	return out
}
