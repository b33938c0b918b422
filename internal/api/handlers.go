package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wesm/groupfn/internal/docsample"
	"github.com/wesm/groupfn/internal/facade"
	"github.com/wesm/groupfn/internal/importer"
	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/search"
	"github.com/wesm/groupfn/internal/task"
)

const (
	defaultTaskLimit = 100
	maxTaskLimit     = 1000
	maxBodyBytes     = 8 << 20
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// FieldInfo describes one property of the task object.
type FieldInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Doc  string `json:"doc"`
}

// SampleInfo is one documented example.
type SampleInfo struct {
	Instruction string   `json:"instruction"`
	Snippet     string   `json:"snippet"`
	Lines       []string `json:"lines"`
}

// CategoryInfo is a titled list of examples.
type CategoryInfo struct {
	Name    string       `json:"name"`
	Fixture string       `json:"fixture"`
	Samples []SampleInfo `json:"samples"`
}

// TaskFilterRequest selects stored tasks for a group request.
type TaskFilterRequest struct {
	Search     string `json:"search,omitempty"` // e.g. "source:work #urgent due-before:7d"
	Source     string `json:"source,omitempty"`
	PathPrefix string `json:"path_prefix,omitempty"`
	Tag        string `json:"tag,omitempty"`
	OpenOnly   bool   `json:"open_only,omitempty"`
}

// query parses Search relative to today and overlays the explicit fields.
func (f *TaskFilterRequest) query(today time.Time) *search.Query {
	p := search.NewParser()
	p.Now = func() time.Time { return today }
	if f == nil {
		return p.Parse("")
	}
	q := p.Parse(f.Search)
	if f.Source != "" {
		q.Source = f.Source
	}
	if f.PathPrefix != "" {
		q.PathPrefix = f.PathPrefix
	}
	if f.Tag != "" {
		q.Tags = append(q.Tags, f.Tag)
	}
	if f.OpenOnly {
		q.OpenOnly = true
	}
	return q
}

// GroupRequest is the body of POST /api/v1/group. Instructions are
// given either one per element or as newline separated Query text. When
// Tasks is absent the stored tasks matching Filter are grouped.
type GroupRequest struct {
	Instructions []string           `json:"instructions,omitempty"`
	Query        string             `json:"query,omitempty"`
	Tasks        []importer.Record  `json:"tasks,omitempty"`
	Filter       *TaskFilterRequest `json:"filter,omitempty"`
	Today        string             `json:"today,omitempty"` // YYYY-MM-DD
}

// VerifyFailure is one failed sample check.
type VerifyFailure struct {
	Category    string `json:"category"`
	Snippet     string `json:"snippet"`
	RecordIndex int    `json:"record_index"`
	Check       string `json:"check"`
	Error       string `json:"error"`
}

// VerifyResponse is the outcome of checking every documented sample.
type VerifyResponse struct {
	OK       bool            `json:"ok"`
	Samples  int             `json:"samples"`
	Failures []VerifyFailure `json:"failures"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

func (s *Server) requireEngine(w http.ResponseWriter) bool {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "Task store not available")
		return false
	}
	return true
}

// handleStats returns store statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}
	stats, err := s.engine.GetTotalStats(r.Context())
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleListSources returns the imported sources.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}
	sources, err := s.engine.ListSources(r.Context())
	if err != nil {
		s.logger.Error("failed to list sources", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list sources")
		return
	}
	if sources == nil {
		sources = []query.SourceInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

// handleListTasks returns stored tasks matching the source, path, tag
// and open query parameters, narrowed further by a q filter string.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}
	q := r.URL.Query()
	limit := defaultTaskLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxTaskLimit)
	}
	filter := &TaskFilterRequest{
		Search:     q.Get("q"),
		Source:     q.Get("source"),
		PathPrefix: q.Get("path"),
		Tag:        q.Get("tag"),
		OpenOnly:   q.Get("open") == "true",
	}
	var tasks []*task.Task
	var err error
	if filter.Search == "" {
		sf := query.StoreFilter(filter.query(time.Time{}))
		sf.Limit = limit
		tasks, err = s.engine.ListTasks(r.Context(), sf)
	} else {
		sq := filter.query(task.Day(s.now()))
		if sq.Limit == 0 || sq.Limit > limit {
			sq.Limit = limit
		}
		tasks, err = query.SelectTasks(r.Context(), s.engine, sq)
	}
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list tasks")
		return
	}
	records := make([]importer.Record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, importer.RecordFromTask(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": records})
}

// handleFields lists the task properties expressions can use.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	fields := make([]FieldInfo, 0, len(facade.Fields))
	for _, f := range facade.Fields {
		fields = append(fields, FieldInfo{Name: f.Name, Kind: f.Kind, Doc: f.Doc})
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

// handleSamples lists the documented examples by category.
func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": categoryInfos(docsample.Registry())})
}

func categoryInfos(categories []docsample.Category) []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categories))
	for _, c := range categories {
		info := CategoryInfo{Name: c.Name, Fixture: c.Fixture, Samples: make([]SampleInfo, 0, len(c.Samples))}
		for _, smp := range c.Samples {
			info.Samples = append(info.Samples, SampleInfo{
				Instruction: "group by function " + smp.Snippet,
				Snippet:     smp.Snippet,
				Lines:       smp.Lines,
			})
		}
		out = append(out, info)
	}
	return out
}

// handleGroup runs grouping instructions over the request's tasks or
// the stored ones.
func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	text := req.Query
	if len(req.Instructions) > 0 {
		if text != "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "Give either instructions or query, not both")
			return
		}
		text = query.JoinInstructions(req.Instructions)
	}

	settings := query.SettingsFromConfig(s.cfg, s.now(), s.logger)
	if req.Today != "" {
		d, err := time.Parse(time.DateOnly, req.Today)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_today", "today must be YYYY-MM-DD")
			return
		}
		settings.Today = d
	}

	tasks, ok := s.requestTasks(w, r, req, settings.Today)
	if !ok {
		return
	}

	res, err := query.Group(r.Context(), text, tasks, settings)
	if err != nil {
		if query.IsUserError(err) {
			writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
			return
		}
		s.logger.Error("grouping failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Grouping failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// requestTasks returns the inline tasks of req, or the stored tasks when
// none are given. It writes the error response itself.
func (s *Server) requestTasks(w http.ResponseWriter, r *http.Request, req GroupRequest, today time.Time) ([]*task.Task, bool) {
	if req.Tasks != nil {
		if req.Filter != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "filter applies to stored tasks only")
			return nil, false
		}
		tasks, recErrs := importer.ToTasks(req.Tasks)
		if len(recErrs) > 0 {
			errs := make([]error, len(recErrs))
			for i, e := range recErrs {
				errs[i] = e
			}
			writeError(w, http.StatusBadRequest, "invalid_tasks", errors.Join(errs...).Error())
			return nil, false
		}
		return tasks, true
	}

	if !s.requireEngine(w) {
		return nil, false
	}
	tasks, err := query.SelectTasks(r.Context(), s.engine, req.Filter.query(today))
	if err != nil {
		s.logger.Error("failed to load tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load tasks")
		return nil, false
	}
	return tasks, true
}

// handleVerify checks every documented sample against its fixture.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	report := docsample.Verify(r.Context(), docsample.Registry(), docsample.Fixtures(), docsample.Options{
		MaxOperations: s.cfg.Grouping.MaxOperations,
		Logger:        s.logger,
	})
	if err := r.Context().Err(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "cancelled", "Verification did not finish")
		return
	}
	resp := VerifyResponse{OK: report.OK(), Samples: report.Samples, Failures: make([]VerifyFailure, 0, len(report.Failures))}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, VerifyFailure{
			Category:    f.Category,
			Snippet:     f.Snippet,
			RecordIndex: f.RecordIndex,
			Check:       string(f.Check),
			Error:       f.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ImportsResponse is the scheduled import status.
type ImportsResponse struct {
	Running bool           `json:"running"`
	Imports []ImportStatus `json:"imports"`
}

// handleImportStatus returns the state of every scheduled import.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	resp := ImportsResponse{Imports: []ImportStatus{}}
	if s.scheduler != nil {
		resp.Running = s.scheduler.IsRunning()
		if statuses := s.scheduler.Status(); statuses != nil {
			resp.Imports = statuses
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTriggerImport starts a scheduled source's import now.
func (s *Server) handleTriggerImport(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if s.scheduler == nil || !s.scheduler.IsScheduled(source) {
		writeError(w, http.StatusNotFound, "not_found", "No scheduled import for source: "+source)
		return
	}

	if err := s.scheduler.TriggerImport(source); err != nil {
		s.logger.Error("failed to trigger import", "source", source, "error", err)
		writeError(w, http.StatusConflict, "import_error", err.Error())
		return
	}

	s.logger.Info("import triggered via API", "source", source)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "Import started for " + source,
	})
}
