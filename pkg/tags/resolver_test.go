package tags

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo keys tags by canonical name, mimicking the unique constraint
// of the real store.
type memRepo struct {
	byName map[Kind]map[string]Tag
}

func newMemRepo() *memRepo {
	return &memRepo{byName: map[Kind]map[string]Tag{
		KindCompany: {},
		KindKeyword: {},
	}}
}

func (r *memRepo) Upsert(_ context.Context, kind Kind, name string) (Tag, error) {
	if t, ok := r.byName[kind][name]; ok {
		return t, nil
	}
	t := Tag{ID: uuid.New(), Name: name}
	r.byName[kind][name] = t
	return t, nil
}

func (r *memRepo) MatchIDs(_ context.Context, kind Kind, terms []string) ([]uuid.UUID, error) {
	return nil, nil
}

func TestResolveConvergesAcrossCasings(t *testing.T) {
	repo := newMemRepo()
	r := NewResolver(repo)
	ctx := context.Background()

	first, err := r.Resolve(ctx, KindCompany, "google inc")
	require.NoError(t, err)
	second, err := r.Resolve(ctx, KindCompany, "GOOGLE INC")
	require.NoError(t, err)
	third, err := r.Resolve(ctx, KindCompany, "  Google   Inc ")
	require.NoError(t, err)

	assert.Equal(t, "Google Inc", first.Name)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, third.ID)
	assert.Len(t, repo.byName[KindCompany], 1)
}

func TestResolveKindsIsolated(t *testing.T) {
	repo := newMemRepo()
	r := NewResolver(repo)
	ctx := context.Background()

	co, err := r.Resolve(ctx, KindCompany, "python")
	require.NoError(t, err)
	kw, err := r.Resolve(ctx, KindKeyword, "python")
	require.NoError(t, err)

	assert.NotEqual(t, co.ID, kw.ID)
	assert.Equal(t, "Python", co.Name)
	assert.Equal(t, "python", kw.Name)
}
