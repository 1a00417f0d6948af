package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"rentscout-engine/internal/config"
	"rentscout-engine/internal/events"
	"rentscout-engine/internal/monitor"
	"rentscout-engine/internal/pipeline"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal    *atomic.Value // stores config.Config
	RunStatus *atomic.Value // stores httpapi.RunStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Batch entrypoint (inject for testability)
	ProcessBatch func(ctx context.Context, links []string) pipeline.Report

	// nil when the page monitor is disabled
	MonitorStatus func() monitor.Status
}
