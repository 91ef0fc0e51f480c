package view

import "github.com/mucollege/dispatchtrack/core/model"

// Filter narrows a joined view by exact-match predicates. The zero value of
// each field means "no filter" for that predicate; the zero Filter passes
// everything through.
type Filter struct {
	ExamDate    *model.Date
	RouteCode   string
	CollegeCode string
}

// IsZero reports whether no predicate is set. It lets callers distinguish
// "nothing selected" from a selection that filtered down to zero rows.
func (f Filter) IsZero() bool {
	return f.ExamDate == nil && f.RouteCode == "" && f.CollegeCode == ""
}

// Apply returns the rows satisfying all set predicates. Predicates are
// conjunctive and independent, so applying them one at a time in any order
// yields the same subset. An empty result is valid output.
func (f Filter) Apply(rows []model.JoinedRow) []model.JoinedRow {
	out := make([]model.JoinedRow, 0, len(rows))
	for _, row := range rows {
		if f.ExamDate != nil && !row.ExamDate.Equal(*f.ExamDate) {
			continue
		}
		if f.RouteCode != "" && row.RouteCode != f.RouteCode {
			continue
		}
		if f.CollegeCode != "" && row.CollegeCode != f.CollegeCode {
			continue
		}
		out = append(out, row)
	}
	return out
}

// Routes returns the distinct route codes present in the rows, in first-seen
// order, for populating a route selector.
func Routes(rows []model.JoinedRow) []string {
	return distinct(rows, func(r model.JoinedRow) string { return r.RouteCode })
}

// CollegeCodes returns the distinct college codes present in the rows.
func CollegeCodes(rows []model.JoinedRow) []string {
	return distinct(rows, func(r model.JoinedRow) string { return r.CollegeCode })
}

func distinct(rows []model.JoinedRow, key func(model.JoinedRow) string) []string {
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
