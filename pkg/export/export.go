package export

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/mucollege/dispatchtrack/core/model"
)

// WriteJSON writes the joined view to w in JSON format.
func WriteJSON(w io.Writer, rows []model.JoinedRow) error {
	enc := json.NewEncoder(w)
	return enc.Encode(rows)
}

// WriteCSV writes the joined view to w in CSV format.
func WriteCSV(w io.Writer, rows []model.JoinedRow) error {
	cw := csv.NewWriter(w)
	header := []string{"college_code", "college_name", "route_code", "route_name", "exam_date", "status", "name", "remark"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.CollegeCode,
			r.CollegeName,
			r.RouteCode,
			r.RouteName,
			r.ExamDate.String(),
			r.Status.String(),
			r.DispatchRecord.Recipient,
			r.Remark,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
