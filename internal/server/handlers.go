package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TraFost/case-pilot/internal/domain"
)

// RingBuilder resolves fraud ring graphs around a subject.
type RingBuilder interface {
	BuildByUser(ctx context.Context, userID string) (*domain.RingGraph, error)
	BuildByAlert(ctx context.Context, alertID string) (*domain.RingGraph, error)
}

// AttackInjector schedules a coordinated attack simulation.
type AttackInjector interface {
	Inject(ctx context.Context) (int, error)
}

// AlertLister serves the alert feed.
type AlertLister interface {
	ListAlerts(ctx context.Context, limit int) ([]domain.AlertWithUser, error)
}

// UserEnforcer applies enforcement status changes to users.
type UserEnforcer interface {
	UpdateUserStatus(ctx context.Context, userID, status string, action domain.Action) (bool, error)
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger   *slog.Logger
	rings    RingBuilder
	injector AttackInjector
	alerts   AlertLister
	enforcer UserEnforcer
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, rings RingBuilder, injector AttackInjector, alerts AlertLister, enforcer UserEnforcer) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		rings:    rings,
		injector: injector,
		alerts:   alerts,
		enforcer: enforcer,
	}
}

func (h *APIHandlers) handleRingByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/rings/user/")
	userID = strings.Trim(userID, "/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	graph, err := h.rings.BuildByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to build ring graph", "error", err, "userId", userID)
		writeError(w, http.StatusInternalServerError, "failed to build ring graph")
		return
	}
	if graph == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, graph)
}

func (h *APIHandlers) handleRingByAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	alertID := strings.TrimPrefix(r.URL.Path, "/rings/alert/")
	alertID = strings.Trim(alertID, "/")
	if alertID == "" {
		writeError(w, http.StatusBadRequest, "alert ID is required")
		return
	}

	graph, err := h.rings.BuildByAlert(r.Context(), alertID)
	if err != nil {
		h.logger.Error("failed to build ring graph", "error", err, "alertId", alertID)
		writeError(w, http.StatusInternalServerError, "failed to build ring graph")
		return
	}
	if graph == nil {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}

	respondJSON(w, http.StatusOK, graph)
}

func (h *APIHandlers) handleInjectAttack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	count, err := h.injector.Inject(r.Context())
	if err != nil {
		h.logger.Error("failed to inject attack", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to inject attack")
		return
	}
	if count == 0 {
		writeError(w, http.StatusConflict, "no eligible users to target")
		return
	}

	attacksScheduled.Inc()

	respondJSON(w, http.StatusAccepted, injectAttackResponse{
		Status:         "scheduled",
		ScheduledUnits: count,
	})
}

func (h *APIHandlers) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 50)
	alerts, err := h.alerts.ListAlerts(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list alerts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	resp := listAlertsResponse{Items: []alertResponse{}}
	for _, item := range alerts {
		resp.Items = append(resp.Items, alertResponse{
			AlertID:       item.ID,
			UserID:        item.UserID,
			UserName:      item.UserName,
			Trigger:       item.Trigger,
			RiskScore:     item.RiskScore,
			Amount:        item.Amount,
			Status:        item.Status,
			IsRealtime:    item.IsRealtime,
			AttackBatchID: item.AttackBatchID,
			EvidenceTxIDs: item.EvidenceTxIDs,
			CreatedAt:     formatTime(item.CreatedAt),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	userID, suffix, found := strings.Cut(strings.Trim(rest, "/"), "/")
	if !found || suffix != "status" || userID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var payload userStatusRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !domain.ValidUserStatus(payload.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	action := domain.Action{
		UserID:     userID,
		Type:       actionTypeForStatus(payload.Status),
		ExecutedBy: payload.ExecutedBy,
		ExecutedAt: time.Now().UTC(),
		Result:     "applied",
		Notes:      payload.Notes,
	}

	found, err := h.enforcer.UpdateUserStatus(r.Context(), userID, payload.Status, action)
	if err != nil {
		h.logger.Error("failed to update user status", "error", err, "userId", userID)
		writeError(w, http.StatusInternalServerError, "failed to update user status")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, userStatusResponse{
		Status: "ok",
		UserID: userID,
	})
}

func actionTypeForStatus(status string) string {
	switch status {
	case domain.UserStatusFrozen:
		return "freeze"
	case domain.UserStatusShadowBanned:
		return "shadow_ban"
	default:
		return "release"
	}
}

type injectAttackResponse struct {
	Status         string `json:"status"`
	ScheduledUnits int    `json:"scheduledUnits"`
}

type listAlertsResponse struct {
	Items []alertResponse `json:"items"`
}

type alertResponse struct {
	AlertID       string   `json:"alertId"`
	UserID        string   `json:"userId"`
	UserName      string   `json:"userName,omitempty"`
	Trigger       string   `json:"trigger"`
	RiskScore     float64  `json:"riskScore"`
	Amount        float64  `json:"amount"`
	Status        string   `json:"status"`
	IsRealtime    bool     `json:"isRealtime"`
	AttackBatchID string   `json:"attackBatchId,omitempty"`
	EvidenceTxIDs []string `json:"evidenceTxIds,omitempty"`
	CreatedAt     string   `json:"createdAt"`
}

type userStatusRequest struct {
	Status     string `json:"status"`
	ExecutedBy string `json:"executedBy"`
	Notes      string `json:"notes"`
}

type userStatusResponse struct {
	Status string `json:"status"`
	UserID string `json:"userId"`
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
