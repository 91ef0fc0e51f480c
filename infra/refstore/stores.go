package refstore

import (
	"context"
	"net/http"
	"strings"

	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/store"
)

type collegeList struct {
	Items []model.College `json:"items"`
}

type dispatchList struct {
	Items []model.DispatchRecord `json:"items"`
}

// GetCollege fetches one college by internal id.
func (c *Client) GetCollege(ctx context.Context, id string) (model.College, error) {
	var college model.College
	status, err := c.do(ctx, http.MethodGet, c.recordsURL(collegesCollection, id), nil, &college)
	if err != nil {
		if status == http.StatusNotFound {
			return model.College{}, store.ErrNotFound
		}
		return model.College{}, &store.FetchError{Collection: collegesCollection, Status: status, Err: err}
	}
	return college.Normalized(), nil
}

// FindCollegeByCode resolves a human-readable short code by exact match.
func (c *Client) FindCollegeByCode(ctx context.Context, code string) (model.College, error) {
	var list collegeList
	filter := `(college_id=` + quote(code) + `)`
	if err := c.list(ctx, collegesCollection, filter, &list); err != nil {
		return model.College{}, err
	}
	if len(list.Items) == 0 {
		return model.College{}, store.ErrNotFound
	}
	return list.Items[0].Normalized(), nil
}

// ListColleges fetches a whole id set in one filtered request, bounding the
// request count of a reconciliation pass regardless of join cardinality.
func (c *Client) ListColleges(ctx context.Context, ids []string) ([]model.College, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	terms := make([]string, 0, len(ids))
	for _, id := range ids {
		terms = append(terms, "id="+quote(id))
	}
	var list collegeList
	filter := "(" + strings.Join(terms, " || ") + ")"
	if err := c.list(ctx, collegesCollection, filter, &list); err != nil {
		return nil, err
	}
	out := make([]model.College, 0, len(list.Items))
	for _, college := range list.Items {
		out = append(out, college.Normalized())
	}
	return out, nil
}

// ListDispatches scans the dispatch collection.
func (c *Client) ListDispatches(ctx context.Context) ([]model.DispatchRecord, error) {
	var list dispatchList
	if err := c.list(ctx, dispatchCollection, "", &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// CreateDispatch posts a new dispatch record.
func (c *Client) CreateDispatch(ctx context.Context, d model.NewDispatch) (model.DispatchRecord, error) {
	var rec model.DispatchRecord
	status, err := c.do(ctx, http.MethodPost, c.recordsURL(dispatchCollection, ""), d, &rec)
	if err != nil {
		return model.DispatchRecord{}, &store.WriteError{Collection: dispatchCollection, Status: status, Err: err}
	}
	return rec, nil
}

// CompleteDispatch patches the record to complete with the recipient name.
// On failure the record is unchanged and the caller may retry.
func (c *Client) CompleteDispatch(ctx context.Context, id, recipient string) error {
	body := map[string]string{
		"status": model.StatusComplete.String(),
		"name":   recipient,
	}
	status, err := c.do(ctx, http.MethodPatch, c.recordsURL(dispatchCollection, id), body, nil)
	if err != nil {
		return &store.WriteError{Collection: dispatchCollection, ID: id, Status: status, Err: err}
	}
	return nil
}

// UpdateRemark patches only the remark field.
func (c *Client) UpdateRemark(ctx context.Context, id, remark string) error {
	body := map[string]string{"remark": remark}
	status, err := c.do(ctx, http.MethodPatch, c.recordsURL(dispatchCollection, id), body, nil)
	if err != nil {
		return &store.WriteError{Collection: dispatchCollection, ID: id, Status: status, Err: err}
	}
	return nil
}

var (
	_ store.CollegeStore  = (*Client)(nil)
	_ store.DispatchStore = (*Client)(nil)
)
