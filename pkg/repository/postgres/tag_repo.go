package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careerfair/resumebank/pkg/tags"
)

// TagRepository stores the append-only Company/Keyword reference data.
type TagRepository struct {
	pool *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) (*TagRepository, error) {
	r := &TagRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TagRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS companies (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS keywords (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
`)
	return err
}

func tableFor(kind tags.Kind) (string, error) {
	switch kind {
	case tags.KindCompany:
		return "companies", nil
	case tags.KindKeyword:
		return "keywords", nil
	default:
		return "", fmt.Errorf("unknown tag kind %q", kind)
	}
}

// Upsert finds or creates the tag in one statement. The no-op DO UPDATE
// makes RETURNING yield the surviving row on conflict, so two
// concurrent resolutions of a new name converge on one record.
func (r *TagRepository) Upsert(ctx context.Context, kind tags.Kind, name string) (tags.Tag, error) {
	table, err := tableFor(kind)
	if err != nil {
		return tags.Tag{}, err
	}
	row := r.pool.QueryRow(ctx, `
INSERT INTO `+table+` (id, name)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name
`, uuid.New(), name)
	var t tags.Tag
	if err := row.Scan(&t.ID, &t.Name); err != nil {
		return tags.Tag{}, fmt.Errorf("upsert %s: %w", table, err)
	}
	return t, nil
}

// MatchIDs returns ids of tags whose name contains any term,
// case-insensitively.
func (r *TagRepository) MatchIDs(ctx context.Context, kind tags.Kind, terms []string) ([]uuid.UUID, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		patterns = append(patterns, "%"+t+"%")
	}
	rows, err := r.pool.Query(ctx, `
SELECT id FROM `+table+` WHERE name ILIKE ANY($1)
`, patterns)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", table, err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
