/*
main.go - Application entry point

PURPOSE:
  Starts the leave-bridge server: webhook ingestion from Rework, the
  outbox worker that mirrors approved leave into vPlan, and the CNC
  machine tracker API.

STARTUP SEQUENCE:
  1. Load environment configuration (.env honored)
  2. Open the SQLite store (outbox + machines)
  3. Construct API clients - skipped when credentials are absent
  4. Register outbox handlers and start the worker
  5. Serve HTTP with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s drain)
  2. Stop the outbox worker (in-flight batch finishes)
  3. Close the database

DEGRADED MODE:
  Missing VPLAN_* credentials log a warning; webhooks are still
  acknowledged and queued, and the worker drops sync tasks with a log
  line. Missing REWORK_* credentials disable the import endpoints
  (503) only.

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - outbox/worker.go: Deferred processing
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/leave-bridge/api"
	"github.com/warp/leave-bridge/bridge"
	"github.com/warp/leave-bridge/config"
	"github.com/warp/leave-bridge/machines"
	"github.com/warp/leave-bridge/outbox"
	"github.com/warp/leave-bridge/rework"
	"github.com/warp/leave-bridge/store/sqlite"
	"github.com/warp/leave-bridge/vplan"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()

	// Store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer store.Close()

	// Outbound clients. Nil when not configured; the bridge degrades
	// instead of crashing.
	var sync *bridge.Synchronizer
	if cfg.VPlan.Enabled() {
		plan := vplan.New(cfg.VPlan.BaseURL, cfg.VPlan.APIKey, cfg.VPlan.EnvID, log)
		sync = bridge.NewSynchronizer(plan, log)
	} else {
		log.Warn("VPLAN_API_KEY/VPLAN_ENV_ID not set: webhooks will be acknowledged but not mirrored")
	}

	var importer *bridge.Importer
	if cfg.Rework.Enabled() && sync != nil {
		src := rework.New(cfg.Rework.BaseURL, cfg.Rework.Token, cfg.Rework.CompanyID, log)
		sync.UseHolidays(src)
		importer = bridge.NewImporter(src, sync, log)
	} else if !cfg.Rework.Enabled() {
		log.Warn("REWORK_BASE_URL/REWORK_API_TOKEN not set: import endpoints disabled")
	}

	// Outbox worker
	worker := outbox.NewWorker(store.Outbox(), log)
	worker.Handle(bridge.TaskKindSync, bridge.TaskHandler(sync, log))
	worker.Handle(machines.TaskKindEvent, machines.EventHandler(store.Machines(), log))
	worker.Start()
	defer worker.Stop()

	// HTTP
	handler := api.NewHandler(store.Outbox(), store.Machines(), importer, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}

	log.Info("server stopped")
}
