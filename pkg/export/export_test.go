package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mucollege/dispatchtrack/core/model"
)

func TestWriteCSV(t *testing.T) {
	d, err := model.ParseDate("2024-05-01")
	require.NoError(t, err)
	rows := []model.JoinedRow{
		{
			DispatchRecord: model.DispatchRecord{ID: "d1", ExamDate: d, Status: model.StatusPending, Remark: model.DefaultRemark},
			CollegeCode:    "MED01",
			CollegeName:    "Medical College",
			RouteCode:      "R1",
			RouteName:      "North",
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "college_code,college_name,route_code,route_name,exam_date,status,name,remark", lines[0])
	assert.Equal(t, "MED01,Medical College,R1,North,2024-05-01,Pending,,No Remarks", lines[1])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "null\n", buf.String())
}
