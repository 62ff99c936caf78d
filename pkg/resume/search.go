package resume

import (
	"context"
	"strings"

	"github.com/careerfair/resumebank/pkg/tags"
)

// SearchFilters is the raw search request. Multi-value fields arrive
// already split from their comma-delimited query parameters. All
// filters present are AND'ed; values within one field are OR'ed.
type SearchFilters struct {
	Query           string
	Name            string
	Majors          []string
	GraduationYears []string
	Companies       []string
	Keywords        []string
}

// Search compiles the filters into a store query and projects the
// results. Company and keyword names are resolved to tag ids first;
// when a supplied tag filter matches nothing the search short-circuits
// to an empty result without touching the resumes table.
func (s *Service) Search(ctx context.Context, f SearchFilters) ([]Summary, error) {
	spec := SearchSpec{
		Query:           strings.TrimSpace(f.Query),
		Name:            strings.TrimSpace(f.Name),
		Majors:          cleanTerms(f.Majors),
		GraduationYears: cleanTerms(f.GraduationYears),
	}

	if terms := cleanTerms(f.Companies); len(terms) > 0 {
		spec.HasCompanyFilter = true
		ids, err := s.tagRepo.MatchIDs(ctx, tags.KindCompany, terms)
		if err != nil {
			return nil, &DatabaseError{Stage: "company lookup", Err: err}
		}
		if len(ids) == 0 {
			return []Summary{}, nil
		}
		spec.CompanyIDs = ids
	}
	if terms := cleanTerms(f.Keywords); len(terms) > 0 {
		spec.HasKeywordFilter = true
		ids, err := s.tagRepo.MatchIDs(ctx, tags.KindKeyword, terms)
		if err != nil {
			return nil, &DatabaseError{Stage: "keyword lookup", Err: err}
		}
		if len(ids) == 0 {
			return []Summary{}, nil
		}
		spec.KeywordIDs = ids
	}

	records, err := s.repo.Search(ctx, spec)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(records))
	for _, r := range records {
		out = append(out, summarize(r))
	}
	return out, nil
}

func cleanTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
