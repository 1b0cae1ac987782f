package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TraFost/case-pilot/internal/domain"
)

type stubRings struct {
	graph *domain.RingGraph
	err   error
}

func (s *stubRings) BuildByUser(ctx context.Context, userID string) (*domain.RingGraph, error) {
	return s.graph, s.err
}

func (s *stubRings) BuildByAlert(ctx context.Context, alertID string) (*domain.RingGraph, error) {
	return s.graph, s.err
}

type stubInjector struct {
	count int
	err   error
}

func (s *stubInjector) Inject(ctx context.Context) (int, error) {
	return s.count, s.err
}

type stubAlerts struct {
	items []domain.AlertWithUser
	limit int
}

func (s *stubAlerts) ListAlerts(ctx context.Context, limit int) ([]domain.AlertWithUser, error) {
	s.limit = limit
	return s.items, nil
}

type stubEnforcer struct {
	found  bool
	status string
	action domain.Action
}

func (s *stubEnforcer) UpdateUserStatus(ctx context.Context, userID, status string, action domain.Action) (bool, error) {
	s.status = status
	s.action = action
	return s.found, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHandlers(rings RingBuilder, injector AttackInjector, alerts AlertLister, enforcer UserEnforcer) *APIHandlers {
	return NewAPIHandlers(testLogger(), rings, injector, alerts, enforcer)
}

func TestHandleRingByUser(t *testing.T) {
	rings := &stubRings{graph: &domain.RingGraph{
		Nodes: []domain.RingNode{{ID: "user-u1", Label: "Subject", Type: domain.RingNodeSuspect}},
		Edges: []domain.RingEdge{},
	}}
	handlers := testHandlers(rings, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/rings/user/u1", nil)
	rec := httptest.NewRecorder()
	handlers.handleRingByUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload domain.RingGraph
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Nodes) != 1 || payload.Nodes[0].Type != domain.RingNodeSuspect {
		t.Fatalf("unexpected graph payload: %+v", payload)
	}
}

func TestHandleRingByUserNotFound(t *testing.T) {
	handlers := testHandlers(&stubRings{graph: nil}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/rings/user/ghost", nil)
	rec := httptest.NewRecorder()
	handlers.handleRingByUser(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleRingByUserMissingID(t *testing.T) {
	handlers := testHandlers(&stubRings{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/rings/user/", nil)
	rec := httptest.NewRecorder()
	handlers.handleRingByUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleRingByUserStorageError(t *testing.T) {
	handlers := testHandlers(&stubRings{err: errors.New("socket closed")}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/rings/user/u1", nil)
	rec := httptest.NewRecorder()
	handlers.handleRingByUser(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestHandleRingByAlertNotFound(t *testing.T) {
	handlers := testHandlers(&stubRings{graph: nil}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/rings/alert/missing", nil)
	rec := httptest.NewRecorder()
	handlers.handleRingByAlert(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleInjectAttack(t *testing.T) {
	handlers := testHandlers(nil, &stubInjector{count: 7}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/attacks/inject", nil)
	rec := httptest.NewRecorder()
	handlers.handleInjectAttack(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rec.Code)
	}

	var payload injectAttackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.ScheduledUnits != 7 || payload.Status != "scheduled" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandleInjectAttackEmptyPool(t *testing.T) {
	handlers := testHandlers(nil, &stubInjector{count: 0}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/attacks/inject", nil)
	rec := httptest.NewRecorder()
	handlers.handleInjectAttack(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestHandleInjectAttackWrongMethod(t *testing.T) {
	handlers := testHandlers(nil, &stubInjector{count: 5}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/attacks/inject", nil)
	rec := httptest.NewRecorder()
	handlers.handleInjectAttack(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("expected Allow header POST, got %q", allow)
	}
}

func TestHandleListAlerts(t *testing.T) {
	alerts := &stubAlerts{items: []domain.AlertWithUser{
		{
			Alert: domain.Alert{
				ID:            "al-1",
				UserID:        "u1",
				Trigger:       "Velocity Check",
				RiskScore:     95,
				Status:        domain.AlertStatusNew,
				IsRealtime:    true,
				AttackBatchID: "batch-3",
				EvidenceTxIDs: []string{"tx-1"},
			},
			UserName: "Subject One",
		},
	}}
	handlers := testHandlers(nil, nil, alerts, nil)

	req := httptest.NewRequest(http.MethodGet, "/alerts?limit=5", nil)
	rec := httptest.NewRecorder()
	handlers.handleListAlerts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if alerts.limit != 5 {
		t.Fatalf("expected limit 5 forwarded, got %d", alerts.limit)
	}

	var payload listAlertsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(payload.Items))
	}
	item := payload.Items[0]
	if item.UserName != "Subject One" || item.AttackBatchID != "batch-3" || !item.IsRealtime {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestHandleUserStatus(t *testing.T) {
	enforcer := &stubEnforcer{found: true}
	handlers := testHandlers(nil, nil, nil, enforcer)

	body := strings.NewReader(`{"status":"Frozen","executedBy":"analyst-1","notes":"ring member"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/u1/status", body)
	rec := httptest.NewRecorder()
	handlers.handleUserStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if enforcer.status != domain.UserStatusFrozen {
		t.Fatalf("expected Frozen, got %s", enforcer.status)
	}
	if enforcer.action.Type != "freeze" || enforcer.action.ExecutedBy != "analyst-1" {
		t.Fatalf("unexpected action: %+v", enforcer.action)
	}
}

func TestHandleUserStatusInvalidStatus(t *testing.T) {
	handlers := testHandlers(nil, nil, nil, &stubEnforcer{found: true})

	body := strings.NewReader(`{"status":"Vaporized"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/u1/status", body)
	rec := httptest.NewRecorder()
	handlers.handleUserStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleUserStatusMissingUser(t *testing.T) {
	handlers := testHandlers(nil, nil, nil, &stubEnforcer{found: false})

	body := strings.NewReader(`{"status":"Active"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/ghost/status", body)
	rec := httptest.NewRecorder()
	handlers.handleUserStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleUserStatusBadPath(t *testing.T) {
	handlers := testHandlers(nil, nil, nil, &stubEnforcer{found: true})

	body := strings.NewReader(`{"status":"Active"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/u1/freeze", body)
	rec := httptest.NewRecorder()
	handlers.handleUserStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
