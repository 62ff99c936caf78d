package postgres

import (
	"fmt"
	"strings"

	"github.com/careerfair/resumebank/pkg/resume"
)

const resumeColumns = `id, name, major, graduation_year, blob_id, uploaded_by, is_active, created_at, updated_at`

// buildSearchQuery compiles a SearchSpec into a single SQL statement.
// All filter groups are AND'ed; values inside a group are OR'ed.
// Results are restricted to active records and ordered newest first.
func buildSearchQuery(spec resume.SearchSpec) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if spec.Query != "" {
		p := arg("%" + spec.Query + "%")
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE %[1]s OR major ILIKE %[1]s OR graduation_year ILIKE %[1]s)", p))
	}
	if spec.Name != "" {
		conds = append(conds, fmt.Sprintf("name ILIKE %s", arg("%"+spec.Name+"%")))
	}
	if len(spec.Majors) > 0 {
		var ors []string
		for _, m := range spec.Majors {
			ors = append(ors, fmt.Sprintf("major ILIKE %s", arg("%"+m+"%")))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if len(spec.GraduationYears) > 0 {
		var ors []string
		for _, y := range spec.GraduationYears {
			ors = append(ors, fmt.Sprintf("LOWER(graduation_year) = LOWER(%s)", arg(y)))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if len(spec.CompanyIDs) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM resume_companies rc WHERE rc.resume_id = r.id AND rc.company_id = ANY(%s))",
			arg(spec.CompanyIDs)))
	}
	if len(spec.KeywordIDs) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM resume_keywords rk WHERE rk.resume_id = r.id AND rk.keyword_id = ANY(%s))",
			arg(spec.KeywordIDs)))
	}

	sql := "SELECT " + resumeColumns + " FROM resumes r WHERE is_active"
	if len(conds) > 0 {
		sql += " AND " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY created_at DESC"
	return sql, args
}
