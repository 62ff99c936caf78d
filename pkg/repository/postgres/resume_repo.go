package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careerfair/resumebank/pkg/resume"
	"github.com/careerfair/resumebank/pkg/tags"
)

// ResumeRepository stores resume metadata and the ordered tag reference
// sets. Multi-record writes run inside a single transaction; failures
// surface as the domain error taxonomy.
type ResumeRepository struct {
	pool *pgxpool.Pool
}

// NewResumeRepository ensures the resume tables. The tag and cleanup
// repositories must be constructed first: resumes reference their
// tables.
func NewResumeRepository(pool *pgxpool.Pool) (*ResumeRepository, error) {
	r := &ResumeRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ResumeRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS resumes (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	major TEXT NOT NULL,
	graduation_year TEXT NOT NULL,
	blob_id TEXT NOT NULL,
	uploaded_by UUID NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS resume_companies (
	resume_id UUID NOT NULL REFERENCES resumes(id) ON DELETE CASCADE,
	company_id UUID NOT NULL REFERENCES companies(id),
	position INT NOT NULL,
	PRIMARY KEY (resume_id, company_id)
);
CREATE TABLE IF NOT EXISTS resume_keywords (
	resume_id UUID NOT NULL REFERENCES resumes(id) ON DELETE CASCADE,
	keyword_id UUID NOT NULL REFERENCES keywords(id),
	position INT NOT NULL,
	PRIMARY KEY (resume_id, keyword_id)
);
CREATE INDEX IF NOT EXISTS idx_resumes_active_created ON resumes(is_active, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_resumes_blob ON resumes(blob_id);
`)
	return err
}

func (r *ResumeRepository) Create(ctx context.Context, rec resume.Resume) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &resume.DatabaseError{Stage: "metadata commit", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO resumes (id, name, major, graduation_year, blob_id, uploaded_by, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, rec.ID, rec.Name, rec.Major, rec.GraduationYear, rec.BlobID, rec.UploadedBy, rec.IsActive, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return &resume.DatabaseError{Stage: "metadata commit", Err: err}
	}
	if err := insertTagLinks(ctx, tx, "resume_companies", "company_id", rec.ID, rec.Companies); err != nil {
		return &resume.DatabaseError{Stage: "metadata commit", Err: err}
	}
	if err := insertTagLinks(ctx, tx, "resume_keywords", "keyword_id", rec.ID, rec.Keywords); err != nil {
		return &resume.DatabaseError{Stage: "metadata commit", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &resume.DatabaseError{Stage: "metadata commit", Err: err}
	}
	return nil
}

// insertTagLinks writes the ordered reference set. ON CONFLICT DO
// NOTHING keeps set semantics when the same tag id appears twice.
func insertTagLinks(ctx context.Context, tx pgx.Tx, table, column string, resumeID uuid.UUID, ts []tags.Tag) error {
	for i, t := range ts {
		_, err := tx.Exec(ctx, `
INSERT INTO `+table+` (resume_id, `+column+`, position)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING
`, resumeID, t.ID, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ResumeRepository) GetActive(ctx context.Context, id uuid.UUID) (resume.Resume, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+resumeColumns+` FROM resumes WHERE id = $1 AND is_active
`, id)
	rec, err := scanResume(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resume.Resume{}, &resume.NotFoundError{Msg: "resume not found"}
		}
		return resume.Resume{}, &resume.DatabaseError{Stage: "lookup", Err: err}
	}
	if err := r.loadTags(ctx, []*resume.Resume{&rec}); err != nil {
		return resume.Resume{}, &resume.DatabaseError{Stage: "lookup", Err: err}
	}
	return rec, nil
}

func (r *ResumeRepository) Search(ctx context.Context, spec resume.SearchSpec) ([]resume.Resume, error) {
	sql, args := buildSearchQuery(spec)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, &resume.DatabaseError{Stage: "search", Err: err}
	}
	defer rows.Close()

	var recs []resume.Resume
	for rows.Next() {
		rec, err := scanResume(rows)
		if err != nil {
			return nil, &resume.DatabaseError{Stage: "search", Err: err}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &resume.DatabaseError{Stage: "search", Err: err}
	}

	ptrs := make([]*resume.Resume, len(recs))
	for i := range recs {
		ptrs[i] = &recs[i]
	}
	if err := r.loadTags(ctx, ptrs); err != nil {
		return nil, &resume.DatabaseError{Stage: "search", Err: err}
	}
	return recs, nil
}

func (r *ResumeRepository) FilterValues(ctx context.Context) (resume.FilterValues, error) {
	var fv resume.FilterValues
	queries := []struct {
		sql  string
		dest *[]string
	}{
		{`SELECT DISTINCT major FROM resumes WHERE is_active ORDER BY major`, &fv.Majors},
		{`SELECT DISTINCT graduation_year FROM resumes WHERE is_active ORDER BY graduation_year`, &fv.GraduationYears},
		{`SELECT DISTINCT c.name FROM companies c
			JOIN resume_companies rc ON rc.company_id = c.id
			JOIN resumes r ON r.id = rc.resume_id AND r.is_active
			ORDER BY c.name`, &fv.Companies},
		{`SELECT DISTINCT k.name FROM keywords k
			JOIN resume_keywords rk ON rk.keyword_id = k.id
			JOIN resumes r ON r.id = rk.resume_id AND r.is_active
			ORDER BY k.name`, &fv.Keywords},
	}
	for _, q := range queries {
		vals, err := r.stringColumn(ctx, q.sql)
		if err != nil {
			return resume.FilterValues{}, &resume.DatabaseError{Stage: "filter values", Err: err}
		}
		*q.dest = vals
	}
	return fv, nil
}

func (r *ResumeRepository) stringColumn(ctx context.Context, sql string) ([]string, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	vals := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, rows.Err()
}

// Update mutates the metadata columns and, when tag lists are supplied,
// replaces the reference sets, all in one transaction. The blob is
// untouched.
func (r *ResumeRepository) Update(ctx context.Context, id uuid.UUID, fields resume.UpdateFields) (resume.Resume, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return resume.Resume{}, &resume.DatabaseError{Stage: "update", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
UPDATE resumes
SET name = COALESCE($2, name),
    major = COALESCE($3, major),
    graduation_year = COALESCE($4, graduation_year),
    updated_at = $5
WHERE id = $1 AND is_active
RETURNING `+resumeColumns+`
`, id, fields.Name, fields.Major, fields.GraduationYear, time.Now().UTC())
	rec, err := scanResume(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resume.Resume{}, &resume.NotFoundError{Msg: "resume not found"}
		}
		return resume.Resume{}, &resume.DatabaseError{Stage: "update", Err: err}
	}

	if fields.Companies != nil {
		if err := replaceTagLinks(ctx, tx, "resume_companies", "company_id", id, *fields.Companies); err != nil {
			return resume.Resume{}, &resume.DatabaseError{Stage: "update", Err: err}
		}
	}
	if fields.Keywords != nil {
		if err := replaceTagLinks(ctx, tx, "resume_keywords", "keyword_id", id, *fields.Keywords); err != nil {
			return resume.Resume{}, &resume.DatabaseError{Stage: "update", Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return resume.Resume{}, &resume.DatabaseError{Stage: "update", Err: err}
	}

	if err := r.loadTags(ctx, []*resume.Resume{&rec}); err != nil {
		return resume.Resume{}, &resume.DatabaseError{Stage: "update", Err: err}
	}
	return rec, nil
}

func replaceTagLinks(ctx context.Context, tx pgx.Tx, table, column string, resumeID uuid.UUID, ts []tags.Tag) error {
	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE resume_id = $1`, resumeID); err != nil {
		return err
	}
	return insertTagLinks(ctx, tx, table, column, resumeID, ts)
}

// SoftDelete tombstones the record and enqueues its blob for the
// cleanup worker in the same transaction, so a committed delete is
// never silently missing its cleanup task.
func (r *ResumeRepository) SoftDelete(ctx context.Context, id uuid.UUID) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", &resume.DatabaseError{Stage: "delete", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	var blobID string
	err = tx.QueryRow(ctx, `
UPDATE resumes SET is_active = FALSE, updated_at = $2
WHERE id = $1 AND is_active
RETURNING blob_id
`, id, now).Scan(&blobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &resume.NotFoundError{Msg: "resume not found"}
		}
		return "", &resume.DatabaseError{Stage: "delete", Err: err}
	}
	_, err = tx.Exec(ctx, `
INSERT INTO blob_cleanup_tasks (blob_id, next_attempt_at, enqueued_at)
VALUES ($1, $2, $2)
`, blobID, now)
	if err != nil {
		return "", &resume.DatabaseError{Stage: "delete", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", &resume.DatabaseError{Stage: "delete", Err: err}
	}
	return blobID, nil
}

// SoftDeleteAll tombstones every active record and enqueues each blob,
// atomically in one statement.
func (r *ResumeRepository) SoftDeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
WITH gone AS (
	UPDATE resumes SET is_active = FALSE, updated_at = $1
	WHERE is_active
	RETURNING blob_id
)
INSERT INTO blob_cleanup_tasks (blob_id, next_attempt_at, enqueued_at)
SELECT blob_id, $1, $1 FROM gone
`, time.Now().UTC())
	if err != nil {
		return 0, &resume.DatabaseError{Stage: "bulk delete", Err: err}
	}
	return tag.RowsAffected(), nil
}

func (r *ResumeRepository) BlobReferenced(ctx context.Context, blobID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM resumes WHERE blob_id = $1)
`, blobID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("blob reference check: %w", err)
	}
	return exists, nil
}

func scanResume(row pgx.Row) (resume.Resume, error) {
	var rec resume.Resume
	var created, updated time.Time
	err := row.Scan(&rec.ID, &rec.Name, &rec.Major, &rec.GraduationYear, &rec.BlobID,
		&rec.UploadedBy, &rec.IsActive, &created, &updated)
	if err != nil {
		return resume.Resume{}, err
	}
	rec.CreatedAt = created.UTC()
	rec.UpdatedAt = updated.UTC()
	return rec, nil
}

// loadTags fills the ordered tag lists for a batch of records.
func (r *ResumeRepository) loadTags(ctx context.Context, recs []*resume.Resume) error {
	if len(recs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(recs))
	byID := make(map[uuid.UUID]*resume.Resume, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
		byID[rec.ID] = rec
	}

	load := func(sql string, assign func(rec *resume.Resume, t tags.Tag)) error {
		rows, err := r.pool.Query(ctx, sql, ids)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var resumeID uuid.UUID
			var t tags.Tag
			if err := rows.Scan(&resumeID, &t.ID, &t.Name); err != nil {
				return err
			}
			if rec, ok := byID[resumeID]; ok {
				assign(rec, t)
			}
		}
		return rows.Err()
	}

	err := load(`
SELECT rc.resume_id, c.id, c.name
FROM resume_companies rc JOIN companies c ON c.id = rc.company_id
WHERE rc.resume_id = ANY($1)
ORDER BY rc.resume_id, rc.position
`, func(rec *resume.Resume, t tags.Tag) { rec.Companies = append(rec.Companies, t) })
	if err != nil {
		return err
	}
	return load(`
SELECT rk.resume_id, k.id, k.name
FROM resume_keywords rk JOIN keywords k ON k.id = rk.keyword_id
WHERE rk.resume_id = ANY($1)
ORDER BY rk.resume_id, rk.position
`, func(rec *resume.Resume, t tags.Tag) { rec.Keywords = append(rec.Keywords, t) })
}
