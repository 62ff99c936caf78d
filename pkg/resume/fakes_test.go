package resume

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/careerfair/resumebank/pkg/blob"
	"github.com/careerfair/resumebank/pkg/tags"
)

// fakeBlobStore keeps objects in a map. Error fields make individual
// operations fail on demand.
type fakeBlobStore struct {
	objects map[string][]byte
	putErr  error
	openErr error
	delErr  error
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, id string, data []byte, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[id] = data
	return nil
}

func (f *fakeBlobStore) Open(_ context.Context, id string) (blob.Object, error) {
	if f.openErr != nil {
		return blob.Object{}, f.openErr
	}
	data, ok := f.objects[id]
	if !ok {
		return blob.Object{}, blob.ErrNotFound
	}
	return blob.Object{
		Reader:      io.NopCloser(bytes.NewReader(data)),
		Size:        int64(len(data)),
		ContentType: "application/pdf",
	}, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, id string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, id)
	if _, ok := f.objects[id]; !ok {
		return blob.ErrNotFound
	}
	delete(f.objects, id)
	return nil
}

func (f *fakeBlobStore) List(_ context.Context) ([]blob.Info, error) {
	var infos []blob.Info
	for id, data := range f.objects {
		infos = append(infos, blob.Info{ID: id, Size: int64(len(data))})
	}
	return infos, nil
}

// fakeRepo stores records in a map keyed by id.
type fakeRepo struct {
	records   map[uuid.UUID]Resume
	createErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]Resume)}
}

func (f *fakeRepo) Create(_ context.Context, r Resume) error {
	if f.createErr != nil {
		return f.createErr
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	f.records[r.ID] = r
	return nil
}

func (f *fakeRepo) GetActive(_ context.Context, id uuid.UUID) (Resume, error) {
	r, ok := f.records[id]
	if !ok || !r.IsActive {
		return Resume{}, &NotFoundError{Msg: "resume not found"}
	}
	return r, nil
}

func (f *fakeRepo) Search(_ context.Context, _ SearchSpec) ([]Resume, error) {
	var out []Resume
	for _, r := range f.records {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) FilterValues(_ context.Context) (FilterValues, error) {
	return FilterValues{}, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, fields UpdateFields) (Resume, error) {
	if f.updateErr != nil {
		return Resume{}, f.updateErr
	}
	r, ok := f.records[id]
	if !ok || !r.IsActive {
		return Resume{}, &NotFoundError{Msg: "resume not found"}
	}
	if fields.Name != nil {
		r.Name = *fields.Name
	}
	if fields.Major != nil {
		r.Major = *fields.Major
	}
	if fields.GraduationYear != nil {
		r.GraduationYear = *fields.GraduationYear
	}
	if fields.Companies != nil {
		r.Companies = *fields.Companies
	}
	if fields.Keywords != nil {
		r.Keywords = *fields.Keywords
	}
	r.UpdatedAt = time.Now()
	f.records[id] = r
	return r, nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id uuid.UUID) (string, error) {
	r, ok := f.records[id]
	if !ok || !r.IsActive {
		return "", &NotFoundError{Msg: "resume not found"}
	}
	r.IsActive = false
	f.records[id] = r
	return r.BlobID, nil
}

func (f *fakeRepo) SoftDeleteAll(_ context.Context) (int64, error) {
	var n int64
	for id, r := range f.records {
		if r.IsActive {
			r.IsActive = false
			f.records[id] = r
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) BlobReferenced(_ context.Context, blobID string) (bool, error) {
	for _, r := range f.records {
		if r.BlobID == blobID {
			return true, nil
		}
	}
	return false, nil
}

// fakeTagRepo mirrors the unique-name semantics of the real tag store.
type fakeTagRepo struct {
	byName    map[tags.Kind]map[string]tags.Tag
	upsertErr error
	matchErr  error
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{byName: map[tags.Kind]map[string]tags.Tag{
		tags.KindCompany: {},
		tags.KindKeyword: {},
	}}
}

func (f *fakeTagRepo) Upsert(_ context.Context, kind tags.Kind, name string) (tags.Tag, error) {
	if f.upsertErr != nil {
		return tags.Tag{}, f.upsertErr
	}
	if t, ok := f.byName[kind][name]; ok {
		return t, nil
	}
	t := tags.Tag{ID: uuid.New(), Name: name}
	f.byName[kind][name] = t
	return t, nil
}

func (f *fakeTagRepo) MatchIDs(_ context.Context, kind tags.Kind, terms []string) ([]uuid.UUID, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	var ids []uuid.UUID
	for _, t := range f.byName[kind] {
		for _, term := range terms {
			if containsFold(t.Name, term) {
				ids = append(ids, t.ID)
				break
			}
		}
	}
	return ids, nil
}

func containsFold(s, sub string) bool {
	return bytes.Contains(bytes.ToLower([]byte(s)), bytes.ToLower([]byte(sub)))
}

// fakeExtractor returns canned metadata, or fails.
type fakeExtractor struct {
	meta Metadata
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ []byte) (Metadata, error) {
	if f.err != nil {
		return Metadata{}, f.err
	}
	return f.meta, nil
}

var errBoom = errors.New("boom")
