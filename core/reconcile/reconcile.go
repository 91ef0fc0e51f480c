// Package reconcile joins dispatch records with college reference data.
package reconcile

import (
	"context"
	"fmt"

	"github.com/mucollege/dispatchtrack/core/logger"
	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/store"
)

// Reconcile left-joins dispatch records against colleges on the college
// foreign key. Every input record yields exactly one row; records whose
// college cannot be resolved come back with Orphaned set and empty college
// fields so administrators can still see them.
func Reconcile(records []model.DispatchRecord, colleges []model.College) []model.JoinedRow {
	byID := make(map[string]model.College, len(colleges))
	for _, c := range colleges {
		byID[c.ID] = c.Normalized()
	}
	rows := make([]model.JoinedRow, 0, len(records))
	for _, rec := range records {
		row := model.JoinedRow{DispatchRecord: rec}
		if c, ok := byID[rec.CollegeID]; ok {
			row.CollegeCode = c.Code
			row.CollegeName = c.Name
			row.RouteCode = c.RouteCode
			row.RouteName = c.RouteName
		} else {
			row.Orphaned = true
		}
		rows = append(rows, row)
	}
	return rows
}

// CollegeIDs returns the unique college foreign keys of the records, in
// first-seen order.
func CollegeIDs(records []model.DispatchRecord) []string {
	seen := make(map[string]struct{}, len(records))
	var ids []string
	for _, rec := range records {
		if rec.CollegeID == "" {
			continue
		}
		if _, ok := seen[rec.CollegeID]; ok {
			continue
		}
		seen[rec.CollegeID] = struct{}{}
		ids = append(ids, rec.CollegeID)
	}
	return ids
}

// Fetcher performs the full reconciliation pass against the reference store.
type Fetcher struct {
	dispatches store.DispatchStore
	colleges   store.CollegeStore
	log        logger.Logger
}

// NewFetcher wires a Fetcher. A nil logger disables logging.
func NewFetcher(ds store.DispatchStore, cs store.CollegeStore, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Nop{}
	}
	return &Fetcher{dispatches: ds, colleges: cs, log: log}
}

// FetchJoined lists all dispatch records, batch-fetches the colleges for the
// unique foreign keys in one filtered request, and joins them. An empty
// dispatch set short-circuits to an empty view without touching the college
// collection.
func (f *Fetcher) FetchJoined(ctx context.Context) ([]model.JoinedRow, error) {
	records, err := f.dispatches.ListDispatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	if len(records) == 0 {
		return []model.JoinedRow{}, nil
	}
	ids := CollegeIDs(records)
	colleges, err := f.colleges.ListColleges(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	if len(colleges) < len(ids) {
		f.log.Warnf("%d of %d college ids did not resolve", len(ids)-len(colleges), len(ids))
	}
	return Reconcile(records, colleges), nil
}
