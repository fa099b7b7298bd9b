// The gateway is the single public entry point: it terminates HTTP,
// authenticates callers against the identity service, and orchestrates the
// evidence and ledger services.
package main

import (
	"context"
	"errors"
	"os"

	"presence/internal/audit"
	evidenceclient "presence/internal/evidence/client"
	"presence/internal/gateway/handler"
	identityclient "presence/internal/identity/client"
	ledgerclient "presence/internal/ledger/client"
	"presence/internal/platform/config"
	"presence/internal/platform/database"
	"presence/internal/platform/httpserver"
	"presence/internal/platform/logger"
	"presence/internal/platform/metrics"
)

func main() {
	log := logger.New("gateway")

	cfg, err := config.GatewayFromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var auditStore audit.Store = audit.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("no database configured, audit trail stays in memory")
	}

	// Audit writes go through a buffered channel so a slow store never
	// stalls a request; a saturated buffer drops the event.
	inbox := make(chan audit.Event, 256)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := audit.NewWorker(auditStore, inbox).Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	h := handler.New(
		identityclient.New(cfg.IdentityURL),
		evidenceclient.New(cfg.EvidenceURL),
		ledgerclient.New(cfg.LedgerURL),
		audit.NewPublisher(audit.NewChannelSink(inbox, auditStore)),
		log,
		metrics.New("gateway"),
	)

	httpserver.Run(httpserver.New(cfg.Addr, h.Routes()), log)
}
