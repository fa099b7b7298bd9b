// The identity service owns users, credentials, roles, session tokens, and
// designated home areas. It speaks the command envelope over POST /rpc.
package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presence/internal/identity/service"
	"presence/internal/identity/store"
	"presence/internal/identity/throttle"
	"presence/internal/identity/token"
	"presence/internal/identity/transport"
	"presence/internal/platform/config"
	"presence/internal/platform/database"
	"presence/internal/platform/httpserver"
	"presence/internal/platform/logger"
	"presence/internal/platform/metrics"
	"presence/internal/platform/middleware"
	platformredis "presence/internal/platform/redis"
	"presence/pkg/platform/httputil"
	"presence/pkg/rpc"
)

const tokenIssuer = "presence-identity"

func main() {
	log := logger.New("identity")

	cfg, err := config.IdentityFromEnv()
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

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	var loginThrottle service.Throttle
	if redisClient != nil {
		defer redisClient.Close()
		loginThrottle = throttle.NewRedis(redisClient, cfg.LoginFailureWindow)
	} else {
		log.Warn("redis not configured, login throttle disabled")
	}

	tokens := token.NewService(cfg.JWTSigningKey, tokenIssuer, cfg.TokenTTL)
	svc := service.New(store.NewPostgres(db), tokens, loginThrottle, cfg.LoginMaxFailures, log)

	m := metrics.New("identity")
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
