// Package httptransport wires the HTTP surface: public health and metrics,
// bearer-token service endpoints, and admin-key-gated management endpoints.
// Handlers stay thin and delegate every decision to the domain services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustgate/internal/transport/http/shared"
	"trustgate/pkg/platform/middleware/admin"
	"trustgate/pkg/platform/middleware/auth"
)

// Checker reports the health of one dependency.
type Checker interface {
	Health(ctx context.Context) error
}

// Deps bundles everything the router needs.
type Deps struct {
	Trust      *TrustHandler
	Delegation *DelegationHandler
	Admin      *AdminHandler
	Validator  auth.TokenValidator
	// AdminKeyHash is the bcrypt hash admin requests must match. Empty
	// disables the admin surface.
	AdminKeyHash string
	Logger       *slog.Logger
	// Checkers maps a dependency name to its health probe.
	Checkers map[string]Checker
}

// NewRouter builds the chi router with the full endpoint surface.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health", healthHandler(deps.Checkers))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(authed chi.Router) {
			authed.Use(auth.RequireAuth(deps.Validator, deps.Logger))
			deps.Trust.Register(authed)
			deps.Delegation.Register(authed)
		})

		v1.Route("/admin", func(adm chi.Router) {
			adm.Use(admin.RequireAdminKey(deps.AdminKeyHash, deps.Logger))
			deps.Admin.Register(adm)
			deps.Delegation.RegisterAdmin(adm)
		})
	})

	return r
}

// healthHandler probes each dependency and reports per-dependency status.
// Any failing probe degrades the overall status to 503.
func healthHandler(checkers map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checkers))
		for name, checker := range checkers {
			if err := checker.Health(ctx); err != nil {
				deps[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		shared.WriteJSON(w, status, map[string]any{
			"status":       overall,
			"dependencies": deps,
		})
	}
}
