package resume

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerfair/resumebank/pkg/tags"
)

// specRecorder captures the compiled spec handed to the store.
type specRecorder struct {
	fakeRepo
	spec   *SearchSpec
	result []Resume
}

func (r *specRecorder) Search(_ context.Context, spec SearchSpec) ([]Resume, error) {
	r.spec = &spec
	return r.result, nil
}

func newSearchFixture() (*specRecorder, *fakeTagRepo, *Service) {
	repo := &specRecorder{fakeRepo: *newFakeRepo()}
	tagRepo := newFakeTagRepo()
	svc := NewService(repo, tagRepo, tags.NewResolver(tagRepo), newFakeBlobStore(), nil)
	return repo, tagRepo, svc
}

func TestSearchCompilesFilters(t *testing.T) {
	repo, _, svc := newSearchFixture()

	_, err := svc.Search(context.Background(), SearchFilters{
		Query:           "  jane ",
		Name:            "doe",
		Majors:          []string{" Computer Science ", "", "Math"},
		GraduationYears: []string{"2025"},
	})
	require.NoError(t, err)

	require.NotNil(t, repo.spec)
	assert.Equal(t, "jane", repo.spec.Query)
	assert.Equal(t, "doe", repo.spec.Name)
	assert.Equal(t, []string{"Computer Science", "Math"}, repo.spec.Majors)
	assert.Equal(t, []string{"2025"}, repo.spec.GraduationYears)
	assert.False(t, repo.spec.HasCompanyFilter)
	assert.False(t, repo.spec.HasKeywordFilter)
}

func TestSearchResolvesTagFiltersToIDs(t *testing.T) {
	repo, tagRepo, svc := newSearchFixture()
	goog, err := tagRepo.Upsert(context.Background(), tags.KindCompany, "Google")
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), SearchFilters{Companies: []string{"goog"}})
	require.NoError(t, err)

	require.NotNil(t, repo.spec)
	assert.True(t, repo.spec.HasCompanyFilter)
	assert.Equal(t, []uuid.UUID{goog.ID}, repo.spec.CompanyIDs)
}

func TestSearchShortCircuitsOnUnmatchedTagFilter(t *testing.T) {
	repo, _, svc := newSearchFixture()

	out, err := svc.Search(context.Background(), SearchFilters{Companies: []string{"nobody"}})
	require.NoError(t, err)

	assert.NotNil(t, out)
	assert.Empty(t, out)
	// The resumes store was never queried.
	assert.Nil(t, repo.spec)
}

func TestSearchShortCircuitsOnUnmatchedKeyword(t *testing.T) {
	repo, tagRepo, svc := newSearchFixture()
	_, err := tagRepo.Upsert(context.Background(), tags.KindCompany, "Google")
	require.NoError(t, err)

	// The company filter matches but the keyword filter does not; the
	// conjunction can produce nothing.
	out, err := svc.Search(context.Background(), SearchFilters{
		Companies: []string{"google"},
		Keywords:  []string{"cobol"},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Nil(t, repo.spec)
}

func TestSearchTagLookupFailure(t *testing.T) {
	_, tagRepo, svc := newSearchFixture()
	tagRepo.matchErr = errBoom

	_, err := svc.Search(context.Background(), SearchFilters{Keywords: []string{"go"}})

	var derr *DatabaseError
	require.ErrorAs(t, err, &derr)
}

func TestSearchProjectsSummaries(t *testing.T) {
	repo, _, svc := newSearchFixture()
	id := uuid.New()
	repo.result = []Resume{{
		ID:             id,
		Name:           "Jane Doe",
		Major:          "CS",
		GraduationYear: "2025",
		Companies:      []tags.Tag{{ID: uuid.New(), Name: "Google"}},
		Keywords:       []tags.Tag{{ID: uuid.New(), Name: "Go"}},
		IsActive:       true,
	}}

	out, err := svc.Search(context.Background(), SearchFilters{})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, FileURL(id), out[0].FileURL)
	assert.Equal(t, []string{"Google"}, out[0].Companies)
	assert.Equal(t, []string{"Go"}, out[0].Keywords)
}
