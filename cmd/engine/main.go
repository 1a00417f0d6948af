package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"rentscout-engine/internal/config"
	"rentscout-engine/internal/events"
	"rentscout-engine/internal/extract"
	"rentscout-engine/internal/httpapi"
	"rentscout-engine/internal/mailwatch"
	"rentscout-engine/internal/monitor"
	"rentscout-engine/internal/notion"
	"rentscout-engine/internal/pipeline"
	"rentscout-engine/internal/scheduler"
	"rentscout-engine/internal/score"
	"rentscout-engine/internal/secrets"
	"rentscout-engine/internal/store"
)

func main() {
	// .env is optional, used on dev machines
	_ = godotenv.Load()

	// Data dir: env if provided, else local folder.
	dataDir := os.Getenv("RENTSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Single instance per data dir; two engines would double-post listings.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running on %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config invalid (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "rentscout.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()

	token, err := secrets.GetNotionToken()
	if err != nil {
		if cfg.Notion.DatabaseID != "" {
			log.Fatalf("notion: %v", err)
		}
		log.Printf("[engine] no notion token; publishing disabled until one is set")
	}
	nc := notion.NewClient(token, cfg.Notion.APIVersion, cfg.Notion.DatabaseID, cfg.Notion.RequestsPerSec)

	limiter := extract.NewHostLimiter(cfg.Scraper.RequestsPerSec, cfg.Scraper.Burst)
	extractor := extract.New(cfg.Scraper, limiter)
	scorer := score.CatalogScorer{Catalog: cfg.Scoring}

	p := &pipeline.Pipeline{
		Fetcher:  extractor,
		Scorer:   scorer,
		Sink:     nc,
		Mapper:   notion.Mapper{},
		DB:       db.Pool,
		MinScore: cfg.Pipeline.MinScore,
		RoomType: scorer.RoomType,
		Delay:    time.Duration(cfg.Pipeline.RequestDelayMS) * time.Millisecond,
		OnOutcome: func(o pipeline.Outcome) {
			hub.Publish(events.MakeEvent("", "listing.processed", 1, o))
		},
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Link sources, polled together.
	var sources []pipeline.LinkSource
	var mon *monitor.Monitor
	if cfg.Monitor.Enabled {
		mon = monitor.New(nc, cfg.Monitor.PageID, cfg.Monitor.MaxLinksPerCheck)
		sources = append(sources, mon)
	}
	if cfg.Mail.Enabled {
		pw, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg))
		if err != nil {
			log.Fatalf("mail: %v", err)
		}
		sources = append(sources, &mailwatch.Source{Cfg: cfg.Mail, Password: pw})
	}
	if len(sources) > 0 {
		interval := pollInterval(cfg)
		go scheduler.Every(rootCtx, interval, "poll", func(ctx context.Context) error {
			links := pipeline.CollectLinks(ctx, sources, 2*time.Minute)
			if mon != nil {
				hub.Publish(events.MakeEvent("", "monitor.checked", 1, mon.Status()))
			}
			if len(links) == 0 {
				return nil
			}
			report := p.ProcessBatch(ctx, links)
			hub.Publish(events.MakeEvent("", "batch.done", 1, report))
			return nil
		})
	}

	// prune records older than the retention window once a day
	go scheduler.Every(rootCtx, 24*time.Hour, "cleanup", func(ctx context.Context) error {
		n, err := store.CleanupOld(db.Pool)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("[cleanup] removed %d old records", n)
		}
		return nil
	})

	var runStatus atomic.Value
	runStatus.Store(httpapi.RunStatus{})

	deps := httpapi.Deps{
		DB:           db.Pool,
		Hub:          hub,
		CfgVal:       &cfgVal,
		RunStatus:    &runStatus,
		UserCfgPath:  userCfgPath,
		LoadCfg:      loadCfg,
		ProcessBatch: p.ProcessBatch,
	}
	if mon != nil {
		deps.MonitorStatus = mon.Status
	}
	mux := httpapi.NewMux(deps)

	shutdownToken, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&shutdownToken, srv))

	if err := writeTokenFile(dataDir, shutdownToken); err != nil {
		log.Printf("[engine] token file: %v", err)
	}

	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	cancel()
}

// pollInterval picks the tighter of the enabled source intervals.
func pollInterval(cfg config.Config) time.Duration {
	best := 0
	if cfg.Monitor.Enabled && cfg.Monitor.IntervalSeconds > 0 {
		best = cfg.Monitor.IntervalSeconds
	}
	if cfg.Mail.Enabled && cfg.Mail.IntervalSeconds > 0 {
		if best == 0 || cfg.Mail.IntervalSeconds < best {
			best = cfg.Mail.IntervalSeconds
		}
	}
	if best == 0 {
		best = 300
	}
	return time.Duration(best) * time.Second
}
