// Package upload parses uploaded batch files into ingestion rows. Only the
// column shape matters to the core; anything that can produce rows (an XLSX
// front end, a script posting JSON) can feed the ingest API directly.
package upload

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mucollege/dispatchtrack/core/ingest"
	"github.com/mucollege/dispatchtrack/core/model"
)

// Expected CSV columns. Header matching is case-insensitive.
const (
	colCode = "COLL_NO"
	colName = "COLL_NAME"
	colDate = "EXAM"
)

// ParseCSV reads a batch CSV with COLL_NO, COLL_NAME and EXAM columns into
// ingestion rows. Extra columns are ignored; column order does not matter.
func ParseCSV(r io.Reader) ([]ingest.Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{colCode, colName, colDate} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %s", col)
		}
	}

	var rows []ingest.Row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date, err := parseExamDate(rec[idx[colDate]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, ingest.Row{
			CollegeCode: strings.TrimSpace(rec[idx[colCode]]),
			CollegeName: strings.TrimSpace(rec[idx[colName]]),
			ExamDate:    date,
		})
	}
	return rows, nil
}

// parseExamDate accepts ISO dates and the DD/MM/YYYY form exam offices
// commonly export.
func parseExamDate(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := model.ParseDate(s); err == nil {
		return d, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) == 3 {
		iso := fmt.Sprintf("%s-%s-%s", parts[2], pad(parts[1]), pad(parts[0]))
		return model.ParseDate(iso)
	}
	return model.Date{}, fmt.Errorf("unrecognized exam date %q", s)
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
