package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/flowtide/progress/internal/api/respond"
	"github.com/flowtide/progress/internal/api/validate"
	"github.com/flowtide/progress/internal/auth"
	"github.com/flowtide/progress/internal/model"
	"github.com/flowtide/progress/internal/services"
)

// ProgressHandler is a thin HTTP transport over the write reconciler and the
// read aggregator. Identity resolution never fails: an invalid or missing
// API key downgrades the caller to anonymous, so no route here returns 401.
type ProgressHandler struct {
	reconciler *services.Reconciler
	aggregator *services.Aggregator
	resolver   auth.Resolver
}

func NewProgressHandler(rec *services.Reconciler, agg *services.Aggregator, res auth.Resolver) *ProgressHandler {
	return &ProgressHandler{reconciler: rec, aggregator: agg, resolver: res}
}

// writePayload is the body of a Replace or Merge call: the record patch plus
// an optional batch of session-log rows.
type writePayload struct {
	model.RecordPatch
	Sessions []*model.SessionEntry `json:"sessions,omitempty"`
}

func (h *ProgressHandler) decodeWrite(w http.ResponseWriter, r *http.Request) (services.WriteRequest, bool) {
	vars := mux.Vars(r)
	projectID, date := vars["projectId"], vars["date"]

	if err := validate.ProjectID(projectID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return services.WriteRequest{}, false
	}
	if err := validate.Date(date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return services.WriteRequest{}, false
	}

	var body writePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return services.WriteRequest{}, false
	}
	if err := validate.SessionEntries(body.Sessions); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return services.WriteRequest{}, false
	}

	return services.WriteRequest{
		ProjectID: projectID,
		Date:      date,
		Identity:  h.resolver.Resolve(r),
		Patch:     body.RecordPatch,
		Sessions:  body.Sessions,
	}, true
}

// Replace PUT /api/projects/{projectId}/progress/{date}
func (h *ProgressHandler) Replace(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeWrite(w, r)
	if !ok {
		return
	}
	out, err := h.reconciler.Replace(r.Context(), req)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Merge PATCH /api/projects/{projectId}/progress/{date}
func (h *ProgressHandler) Merge(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeWrite(w, r)
	if !ok {
		return
	}
	out, err := h.reconciler.Merge(r.Context(), req)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Delete DELETE /api/projects/{projectId}/progress?date=YYYY-MM-DD&all=true
func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if err := validate.ProjectID(projectID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	q := r.URL.Query()
	all := q.Get("all") == "true"
	date := q.Get("date")
	if !all {
		if err := validate.Date(date); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}

	identity := h.resolver.Resolve(r)
	if err := h.reconciler.Delete(r.Context(), projectID, date, identity, all); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Aggregate GET /api/projects/{projectId}/progress?granularity=daily|weekly|monthly|yearly
func (h *ProgressHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if err := validate.ProjectID(projectID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	g := r.URL.Query().Get("granularity")
	if err := validate.Granularity(g); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	identity := h.resolver.Resolve(r)
	ctx := r.Context()

	if model.Granularity(g) == model.GranularityDaily {
		entries, err := h.aggregator.Daily(ctx, projectID, identity)
		if err != nil {
			respond.WriteServiceError(w, err)
			return
		}
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"entries": entries,
			"count":   len(entries),
		})
		return
	}

	roll, err := h.aggregator.Window(ctx, projectID, identity, model.Granularity(g))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, roll)
}

// AppendSessions POST /api/projects/{projectId}/sessions
// The standalone session append. Failures here are real errors; only the
// piggy-backed appends inside Replace/Merge are best-effort.
func (h *ProgressHandler) AppendSessions(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if err := validate.ProjectID(projectID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	var body struct {
		Date     string                `json:"date"`
		Sessions []*model.SessionEntry `json:"sessions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Date(body.Date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.SessionEntries(body.Sessions); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.reconciler.AppendSessions(r.Context(), projectID, body.Date, body.Sessions); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{"count": len(body.Sessions)})
}
