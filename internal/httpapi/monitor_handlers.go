package httpapi

import (
	"net/http"

	"rentscout-engine/internal/monitor"
)

type MonitorHandler struct {
	Status func() monitor.Status
}

func (h MonitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Status == nil {
		WriteError(w, r, http.StatusNotFound, "monitor_disabled", "page monitor is not enabled")
		return
	}
	writeJSON(w, h.Status())
}
