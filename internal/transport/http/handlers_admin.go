package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/transport/http/shared"
	"trustgate/internal/trust/models"
	"trustgate/internal/trust/store"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/audit"
)

const defaultAuditLimit = 50

// AdminHandler exposes policy management and the recent audit trail.
type AdminHandler struct {
	policies store.PolicyStore
	auditor  *audit.Publisher
	logger   *slog.Logger
}

func NewAdminHandler(policies store.PolicyStore, auditor *audit.Publisher, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{policies: policies, auditor: auditor, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/policies", h.handleListPolicies)
	r.Post("/policies", h.handleCreatePolicy)
	r.Get("/audit", h.handleRecentAudit)
}

func (h *AdminHandler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	policies, err := h.policies.ListActive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "policy listing failed", "error", err)
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "list policies", err))
		return
	}
	if policies == nil {
		policies = []models.Policy{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"policies": policies})
}

func (h *AdminHandler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var policy models.Policy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := validatePolicy(policy); err != nil {
		shared.WriteError(w, err)
		return
	}

	id, err := h.policies.Insert(ctx, policy)
	if err != nil {
		h.logger.ErrorContext(ctx, "policy insert failed", "error", err)
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "store policy", err))
		return
	}
	policy.ID = id

	if h.auditor != nil {
		_ = h.auditor.Emit(ctx, audit.Event{
			Actor:      "admin",
			Action:     audit.ActionPolicyCreated,
			TargetType: "policy",
			TargetID:   id,
			Metadata:   map[string]any{"name": policy.Name, "priority": policy.Priority},
		})
	}
	shared.WriteJSON(w, http.StatusCreated, policy)
}

func validatePolicy(p models.Policy) error {
	if p.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "policy name is required")
	}
	if len(p.Conditions) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "policy needs at least one condition")
	}
	for _, c := range p.Conditions {
		if !c.Type.IsValid() {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown condition type "+string(c.Type))
		}
		if !c.Operator.IsValid() {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown operator "+string(c.Operator))
		}
		if c.Weight < 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "condition weight must be non-negative")
		}
	}
	return nil
}

func (h *AdminHandler) handleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := h.auditor.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit listing failed", "error", err)
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "list audit events", err))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
