// The ledger service is the system of record for attendance: an
// append-only event log with per-day state machine enforcement.
package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identityclient "presence/internal/identity/client"
	"presence/internal/ledger/service"
	"presence/internal/ledger/store"
	"presence/internal/ledger/transport"
	"presence/internal/platform/config"
	"presence/internal/platform/database"
	"presence/internal/platform/httpserver"
	"presence/internal/platform/logger"
	"presence/internal/platform/metrics"
	"presence/internal/platform/middleware"
	"presence/pkg/platform/httputil"
	"presence/pkg/rpc"
)

func main() {
	log := logger.New("ledger")

	cfg, err := config.LedgerFromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

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

	var areas service.AreaResolver
	if cfg.EnforceGeofence {
		areas = identityclient.New(cfg.IdentityURL)
	}
	svc := service.New(store.NewPostgres(db), areas, service.Config{
		EnforceGeofence: cfg.EnforceGeofence,
		GeofenceRadiusM: cfg.GeofenceRadiusM,
	}, log)

	m := metrics.New("ledger")
	rpcServer := rpc.NewServer(log)
	transport.Register(rpcServer, svc, m)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodPost, "/rpc", rpcServer)

	httpserver.Run(httpserver.New(cfg.Addr, r), log)
}
