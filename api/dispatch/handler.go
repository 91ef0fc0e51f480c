// Package dispatch exposes the dispatch-tracking core over HTTP: the joined
// view, the completion workflow and batch ingestion. Rendering is the
// caller's concern; handlers return the data the presentation layer consumes.
package dispatch

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/mucollege/dispatchtrack/core/ingest"
	"github.com/mucollege/dispatchtrack/core/logger"
	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/store"
	"github.com/mucollege/dispatchtrack/core/view"
	"github.com/mucollege/dispatchtrack/core/workflow"
)

// SessionHeader carries the UI session id. Requests without one (or with an
// expired id) get a fresh session whose id is echoed back in the response.
const SessionHeader = "X-Session-ID"

// Handler serves the dispatch-tracking API. Each UI session maps to one
// workflow session; sessions live for the handler's lifetime and are never
// persisted.
type Handler struct {
	engine     *view.Engine
	pipeline   *ingest.Pipeline
	newSession func() *workflow.Session
	token      string
	log        logger.Logger

	mu       sync.Mutex
	sessions map[string]*workflow.Session
}

// NewHandler builds the API handler. Requests must include an Authorization
// header with "Bearer <token>" when token is non-empty.
func NewHandler(engine *view.Engine, pipeline *ingest.Pipeline, newSession func() *workflow.Session, token string, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return &Handler{
		engine:     engine,
		pipeline:   pipeline,
		newSession: newSession,
		token:      token,
		log:        log,
		sessions:   make(map[string]*workflow.Session),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.token != "" {
		if r.Header.Get("Authorization") != "Bearer "+h.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/dispatch/view":
		h.handleView(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/dispatch/complete":
		h.handleComplete(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/dispatch/ingest":
		h.handleIngest(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *workflow.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id := r.Header.Get(SessionHeader); id != "" {
		if s, ok := h.sessions[id]; ok {
			w.Header().Set(SessionHeader, id)
			return s
		}
	}
	s := h.newSession()
	h.sessions[s.ID()] = s
	w.Header().Set(SessionHeader, s.ID())
	return s
}

type viewRow struct {
	model.JoinedRow
	State     string `json:"state"`
	Recipient string `json:"recipient,omitempty"`
}

type viewResponse struct {
	SessionID    string    `json:"session_id"`
	Rows         []viewRow `json:"rows"`
	Routes       []string  `json:"routes"`
	CollegeCodes []string  `json:"college_codes"`
	Warning      string    `json:"warning,omitempty"`
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess := h.session(w, r)
	snap, err := h.engine.Recompute(r.Context(), f)
	resp := viewResponse{SessionID: sess.ID(), Rows: []viewRow{}}
	if err != nil {
		// fetch failure degrades to an empty view with a visible warning
		resp.Warning = "no data available"
		writeJSON(w, h.log, http.StatusOK, resp)
		return
	}
	resp.Routes = view.Routes(snap.Rows)
	resp.CollegeCodes = view.CollegeCodes(snap.Rows)
	for _, row := range snap.Filtered {
		resp.Rows = append(resp.Rows, h.renderRow(sess, row))
	}
	writeJSON(w, h.log, http.StatusOK, resp)
}

func (h *Handler) renderRow(sess *workflow.Session, row model.JoinedRow) viewRow {
	out := viewRow{JoinedRow: row}
	state := sess.State(row)
	if state == workflow.Unmarked && row.Status == model.StatusComplete {
		// already completed at the store, outside this session
		out.State = workflow.Confirmed.String()
		out.Recipient = row.DispatchRecord.Recipient
		return out
	}
	out.State = state.String()
	if name, ok := sess.Recipient(row.CollegeID); ok {
		out.Recipient = name
	}
	return out
}

func filterFromQuery(r *http.Request) (view.Filter, error) {
	var f view.Filter
	if s := r.URL.Query().Get("exam_date"); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return view.Filter{}, err
		}
		f.ExamDate = &d
	}
	f.RouteCode = r.URL.Query().Get("route_code")
	f.CollegeCode = r.URL.Query().Get("college_code")
	return f, nil
}

type completeRequest struct {
	CollegeID string `json:"college_id"`
	Name      string `json:"name"`
}

type completeResponse struct {
	SessionID string `json:"session_id"`
	RecordID  string `json:"record_id"`
	State     string `json:"state"`
	Recipient string `json:"recipient"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	sess := h.session(w, r)

	snap, err := h.engine.Recompute(r.Context(), view.Filter{})
	if err != nil {
		http.Error(w, "no data available", http.StatusBadGateway)
		return
	}
	var target *model.JoinedRow
	for i := range snap.Rows {
		if snap.Rows[i].CollegeID == req.CollegeID {
			target = &snap.Rows[i]
			break
		}
	}
	if target == nil {
		http.Error(w, "no dispatch record for college", http.StatusNotFound)
		return
	}

	sess.Mark(*target)
	if err := sess.Submit(r.Context(), req.CollegeID, req.Name); err != nil {
		switch {
		case errors.Is(err, workflow.ErrAlreadyConfirmed):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, workflow.ErrEmptyRecipient):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			var werr *store.WriteError
			if errors.As(err, &werr) {
				h.log.Errorf("failed to update status for %s: %v", target.CollegeName, err)
				http.Error(w, "failed to update status for "+target.CollegeName, http.StatusBadGateway)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, h.log, http.StatusOK, completeResponse{
		SessionID: sess.ID(),
		RecordID:  target.ID,
		State:     workflow.Confirmed.String(),
		Recipient: req.Name,
	})
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var rows []ingest.Row
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	report := h.pipeline.Run(r.Context(), rows)
	writeJSON(w, h.log, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}
