package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"rentscout-engine/internal/events"
	"rentscout-engine/internal/pipeline"
)

type ProcessHandler struct {
	RunStatus    *atomic.Value // httpapi.RunStatus
	Hub          *events.Hub
	ProcessBatch func(ctx context.Context, links []string) pipeline.Report
}

type processReq struct {
	Links []string `json:"links"`
}

func (h ProcessHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.RunStatus.Load().(RunStatus)
	writeJSON(w, st)
}

// Run accepts a list of links and processes them in the background. One
// batch at a time; a second request while running is refused.
func (h ProcessHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req processReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if len(req.Links) == 0 {
		WriteError(w, r, http.StatusBadRequest, "no_links", "links is empty")
		return
	}

	st := h.RunStatus.Load().(RunStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	h.RunStatus.Store(RunStatus{
		LastRunAt: time.Now().Format(time.RFC3339),
		Running:   true,
		LastOkAt:  st.LastOkAt,
	})

	reqID := RequestIDFrom(r.Context())
	go func() {
		report := h.ProcessBatch(context.Background(), req.Links)
		h.Hub.Publish(events.MakeEvent(reqID, "batch.done", 1, report))

		now := time.Now().Format(time.RFC3339)
		next := h.RunStatus.Load().(RunStatus)
		next.Running = false
		next.LastRunAt = now
		next.LastProcessed = report.Processed
		next.LastCreated = report.Created
		next.LastError = ""
		next.LastOkAt = now
		h.RunStatus.Store(next)
	}()

	writeJSON(w, map[string]any{"ok": true, "queued": len(req.Links)})
}
