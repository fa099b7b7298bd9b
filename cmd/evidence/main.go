// The evidence service fronts the object store: it validates, names, and
// persists check-in photos and mints time-limited retrieval URLs.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presence/internal/evidence/service"
	"presence/internal/evidence/store"
	"presence/internal/evidence/transport"
	"presence/internal/platform/config"
	"presence/internal/platform/httpserver"
	"presence/internal/platform/logger"
	"presence/internal/platform/metrics"
	"presence/internal/platform/middleware"
	"presence/pkg/platform/httputil"
	"presence/pkg/rpc"
)

func main() {
	log := logger.New("evidence")

	cfg, err := config.EvidenceFromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	objects, err := store.NewMinio(context.Background(), store.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Error("object store unavailable", "error", err)
		os.Exit(1)
	}

	svc := service.New(objects, log)

	m := metrics.New("evidence")
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
