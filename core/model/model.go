package model

import (
	"fmt"
	"strings"
	"time"
)

// NoRoute is the sentinel stored in route fields when a college has no route
// assigned. It must never be matched against as a real route code.
const NoRoute = "N/A"

// DefaultRemark is set on newly created dispatch records.
const DefaultRemark = "No Remarks"

// Status is the lifecycle state of a dispatch record at the reference store.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusComplete Status = "Complete"
)

func (s Status) String() string { return string(s) }

// ParseStatus normalizes the wire representation of a status. The store is
// case-insensitive about it ("complete" and "Complete" both occur).
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "complete", "completed":
		return StatusComplete, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// College is read-only reference data describing one delivery destination.
// It is created and maintained by an external admin process.
type College struct {
	ID        string `json:"id"`
	Code      string `json:"college_id"`
	Name      string `json:"college_name"`
	RouteCode string `json:"route_code"`
	RouteName string `json:"route_name"`
}

// HasRoute reports whether the college has a real route assigned, treating
// both an absent value and the NoRoute sentinel as "no route".
func (c College) HasRoute() bool {
	return c.RouteCode != "" && c.RouteCode != NoRoute
}

// Normalized returns a copy with empty route fields replaced by the sentinel.
func (c College) Normalized() College {
	if c.RouteCode == "" {
		c.RouteCode = NoRoute
	}
	if c.RouteName == "" {
		c.RouteName = NoRoute
	}
	return c
}

// DispatchRecord is one tracked exam-paper delivery to one college on one
// date. ExamDate is immutable after creation; Recipient is empty until the
// delivery has been confirmed complete.
type DispatchRecord struct {
	ID        string    `json:"id"`
	CollegeID string    `json:"college"`
	ExamDate  Date      `json:"exam_date"`
	Status    Status    `json:"status"`
	Remark    string    `json:"remark"`
	Recipient string    `json:"name"`
	Created   Timestamp `json:"created"`
}

// NewDispatch is the payload for creating a dispatch record.
type NewDispatch struct {
	CollegeID string `json:"college"`
	ExamDate  Date   `json:"exam_date"`
	Status    Status `json:"status"`
	Remark    string `json:"remark"`
}

// JoinedRow is a dispatch record extended with its college's reference
// fields. Rows are recomputed on every fetch and never persisted. Orphaned is
// set when the college foreign key did not resolve; such rows keep empty
// college fields instead of being dropped.
type JoinedRow struct {
	DispatchRecord
	CollegeCode string `json:"college_code"`
	CollegeName string `json:"college_name"`
	RouteCode   string `json:"route_code"`
	RouteName   string `json:"route_name"`
	Orphaned    bool   `json:"orphaned,omitempty"`
}

// Date is a calendar date without a time component. It marshals as
// YYYY-MM-DD and accepts the reference store's timestamp format on input.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date, tolerating the store's timestamp forms.
func ParseDate(s string) (Date, error) {
	t, err := parseFlexible(s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	y, m, d := t.Date()
	return NewDate(y, m, d), nil
}

func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) String() string     { return d.t.Format(dateLayout) }
func (d Date) Time() time.Time    { return d.t }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Timestamp wraps time.Time to accept the reference store's created/updated
// format ("2006-01-02 15:04:05.000Z") alongside RFC3339.
type Timestamp struct {
	t time.Time
}

func (ts Timestamp) Time() time.Time { return ts.t }
func (ts Timestamp) IsZero() bool    { return ts.t.IsZero() }

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.t.UTC().Format(time.RFC3339) + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*ts = Timestamp{}
		return nil
	}
	t, err := parseFlexible(s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*ts = Timestamp{t: t}
	return nil
}

var timeLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05.000Z",
	"2006-01-02 15:04:05Z",
	time.RFC3339,
}

func parseFlexible(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
