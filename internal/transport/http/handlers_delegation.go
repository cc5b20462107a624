package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/delegation/models"
	"trustgate/internal/transport/http/shared"
	dErrors "trustgate/pkg/domain-errors"
)

// DelegationService is the delegation surface the handlers delegate to.
type DelegationService interface {
	Check(ctx context.Context, req models.CheckRequest) models.CheckResult
	Grant(ctx context.Context, permission models.Permission) (models.Permission, error)
	Revoke(ctx context.Context, grantorID, granteeID, platformID string, accessType models.AccessType) error
	ListGrants(ctx context.Context, filter models.Filter) ([]models.Permission, error)
}

// DelegationHandler exposes the permission check plus admin-gated grant
// management endpoints.
type DelegationHandler struct {
	delegation DelegationService
	logger     *slog.Logger
}

func NewDelegationHandler(delegation DelegationService, logger *slog.Logger) *DelegationHandler {
	return &DelegationHandler{delegation: delegation, logger: logger}
}

// Register adds the check endpoint to the authenticated router.
func (h *DelegationHandler) Register(r chi.Router) {
	r.Post("/delegation/check", h.handleCheck)
}

// RegisterAdmin adds grant management to the admin router.
func (h *DelegationHandler) RegisterAdmin(r chi.Router) {
	r.Get("/delegation/grants", h.handleListGrants)
	r.Post("/delegation/grants", h.handleGrant)
	r.Post("/delegation/revoke", h.handleRevoke)
}

func (h *DelegationHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.GranteeID == "" || req.PlatformID == "" || req.Action == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "grantee_id, platform_id and action are required"))
		return
	}

	result := h.delegation.Check(ctx, req)
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *DelegationHandler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var permission models.Permission
	if err := json.NewDecoder(r.Body).Decode(&permission); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	saved, err := h.delegation.Grant(ctx, permission)
	if err != nil {
		h.logger.WarnContext(ctx, "grant rejected", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, saved)
}

type revokeRequest struct {
	GrantorID  string            `json:"grantor_id"`
	GranteeID  string            `json:"grantee_id"`
	PlatformID string            `json:"platform_id"`
	AccessType models.AccessType `json:"access_type,omitempty"`
}

func (h *DelegationHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	if err := h.delegation.Revoke(ctx, req.GrantorID, req.GranteeID, req.PlatformID, req.AccessType); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DelegationHandler) handleListGrants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := models.Filter{
		GrantorID:  r.URL.Query().Get("grantor_id"),
		GranteeID:  r.URL.Query().Get("grantee_id"),
		PlatformID: r.URL.Query().Get("platform_id"),
		AccessType: models.AccessType(r.URL.Query().Get("access_type")),
	}

	grants, err := h.delegation.ListGrants(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "grant listing failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	if grants == nil {
		grants = []models.Permission{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"grants": grants})
}
