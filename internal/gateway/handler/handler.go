// Package handler is the gateway's HTTP surface. It authenticates callers,
// validates input at the edge, and orchestrates the identity, evidence, and
// ledger services over RPC.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presence/internal/audit"
	identitymodels "presence/internal/identity/models"
	ledgermodels "presence/internal/ledger/models"
	"presence/internal/platform/metrics"
	"presence/internal/platform/middleware"
	dErrors "presence/pkg/domainerrors"
	"presence/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// IdentityClient is the slice of the identity service the gateway needs.
type IdentityClient interface {
	Login(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, token string) (*identitymodels.Principal, error)
	Register(ctx context.Context, reg identitymodels.Registration) (int64, error)
	HomeArea(ctx context.Context, userID int64) (*identitymodels.HomeArea, error)
	UpdateHomeArea(ctx context.Context, userID int64, lat, lon float64) (*identitymodels.HomeArea, error)
}

// EvidenceClient uploads and resolves evidence objects.
type EvidenceClient interface {
	Upload(ctx context.Context, filename, contentType string, payload []byte) (string, error)
	Resolve(ctx context.Context, reference string) (string, int, error)
}

// LedgerClient appends and reads attendance events.
type LedgerClient interface {
	CheckIn(ctx context.Context, userID int64, lat, lon float64, evidenceRef string) (int64, error)
	CheckOut(ctx context.Context, userID int64, lat, lon float64) (int64, error)
	Status(ctx context.Context, userID int64, day string) (ledgermodels.DayStatus, error)
	History(ctx context.Context, page, limit int) (ledgermodels.HistoryPage, error)
	Stats(ctx context.Context, userID int64, startDay, endDay string) (ledgermodels.Stats, error)
}

type Handler struct {
	identity IdentityClient
	evidence EvidenceClient
	ledger   LedgerClient
	audit    *audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(identity IdentityClient, evidence EvidenceClient, ledger LedgerClient, auditPub *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		identity: identity,
		evidence: evidence,
		ledger:   ledger,
		audit:    auditPub,
		logger:   logger,
		metrics:  m,
	}
}

// Routes assembles the gateway router with the full middleware chain.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Latency(h.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.identity, h.logger))

		r.Post("/auth/register", h.register)
		r.Post("/checkin", h.checkIn)
		r.Post("/checkout", h.checkOut)
		r.Get("/attendance-status/{date}", h.status)
		r.Get("/attendance-history", h.history)
		r.Get("/attendance-stats", h.stats)
		r.Get("/user/home-area", h.homeArea)
		r.Put("/user/home-area", h.updateHomeArea)
		r.Get("/evidence/{reference}", h.resolveEvidence)
	})

	return r
}

// requireAdmin writes a 403 and returns nil unless the caller holds the
// Admin role.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) *identitymodels.Principal {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing_token"))
		return nil
	}
	if !principal.HasRole(identitymodels.AdminRole) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin_role_required"))
		return nil
	}
	return principal
}

// emitAudit records an event without failing the request; the trail is
// best-effort.
func (h *Handler) emitAudit(ctx context.Context, event audit.Event) {
	event.RequestID = middleware.GetRequestID(ctx)
	if err := h.audit.Emit(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
