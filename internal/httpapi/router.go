package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs
// the server handle and token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	// Processed listings
	lh := ListingsHandler{DB: d.DB}
	mux.HandleFunc("/listings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))
	mux.HandleFunc("/listings/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.Stats,
	}))

	// Manual processing
	ph := ProcessHandler{
		RunStatus:    d.RunStatus,
		Hub:          d.Hub,
		ProcessBatch: d.ProcessBatch,
	}
	mux.HandleFunc("/process", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ph.Run,
	}))
	mux.HandleFunc("/process/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Status,
	}))

	// Page monitor
	mh := MonitorHandler{Status: d.MonitorStatus}
	mux.HandleFunc("/monitor/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.Get,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		Hub:         d.Hub,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use CfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/notion", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetNotionToken,
	}))
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}
