package httpapi

type RunStatus struct {
	LastRunAt     string `json:"last_run_at"`
	LastOkAt      string `json:"last_ok_at"`
	LastError     string `json:"last_error"`
	LastProcessed int    `json:"last_processed"`
	LastCreated   int    `json:"last_created"`
	Running       bool   `json:"running"`
}
