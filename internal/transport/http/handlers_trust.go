package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/transport/http/shared"
	"trustgate/internal/trust/models"
	dErrors "trustgate/pkg/domain-errors"
)

// TrustService is the trust surface the handlers delegate to.
type TrustService interface {
	AssessTrust(ctx context.Context, userID, deviceID string, rctx models.RequestContext) models.TrustAssessment
	ContinuousMonitoring(ctx context.Context, userID, deviceID string, data models.BehaviorData) models.MonitoringResult
	LastAssessment(userID, deviceID string) (models.TrustAssessment, bool)
}

// TrustHandler exposes assessment and monitoring endpoints.
type TrustHandler struct {
	trust  TrustService
	logger *slog.Logger
}

func NewTrustHandler(trust TrustService, logger *slog.Logger) *TrustHandler {
	return &TrustHandler{trust: trust, logger: logger}
}

func (h *TrustHandler) Register(r chi.Router) {
	r.Post("/trust/assess", h.handleAssess)
	r.Post("/trust/monitor", h.handleMonitor)
	r.Get("/trust/assessments/{userID}/{deviceID}", h.handleLastAssessment)
}

type assessRequest struct {
	UserID   string                `json:"user_id"`
	DeviceID string                `json:"device_id"`
	Context  models.RequestContext `json:"context"`
}

func (h *TrustHandler) handleAssess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.UserID == "" || req.DeviceID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id and device_id are required"))
		return
	}

	assessment := h.trust.AssessTrust(ctx, req.UserID, req.DeviceID, req.Context)
	shared.WriteJSON(w, http.StatusOK, assessment)
}

type monitorRequest struct {
	UserID   string              `json:"user_id"`
	DeviceID string              `json:"device_id"`
	Behavior models.BehaviorData `json:"behavior"`
}

func (h *TrustHandler) handleMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req monitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.UserID == "" || req.DeviceID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id and device_id are required"))
		return
	}

	result := h.trust.ContinuousMonitoring(ctx, req.UserID, req.DeviceID, req.Behavior)
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *TrustHandler) handleLastAssessment(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	deviceID := chi.URLParam(r, "deviceID")

	assessment, ok := h.trust.LastAssessment(userID, deviceID)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no assessment for pair"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, assessment)
}
