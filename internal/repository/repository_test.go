package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TraFost/case-pilot/internal/domain"
	"github.com/TraFost/case-pilot/internal/graph"
)

func TestRepository_InsertUser(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	now := time.Now().UTC()
	user := domain.User{
		ID:          "usr-001",
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		AccountType: domain.AccountTypeRetail,
		Flagged:     true,
		RiskScore:   87,
		Status:      domain.UserStatusActive,
		LastLoginIP: "198.51.100.4",
		Profile: domain.Profile{
			Country: "US",
			Device:  "iPhone",
		},
		CreatedAt: now,
	}

	id, err := repo.InsertUser(context.Background(), user)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != user.ID {
		t.Fatalf("expected id %s, got %s", user.ID, id)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}

	call := calls[0]
	if call.Query != insertUserCypher {
		t.Fatalf("unexpected query\nexpected:\n%s\ngot:\n%s", insertUserCypher, call.Query)
	}
	if call.Params["userId"] != user.ID {
		t.Errorf("expected userId %s, got %v", user.ID, call.Params["userId"])
	}

	props, ok := call.Params["props"].(map[string]any)
	if !ok {
		t.Fatalf("expected props map, got %T", call.Params["props"])
	}
	if props["name"] != user.Name {
		t.Errorf("name mismatch: want %s got %v", user.Name, props["name"])
	}
	if props["flagged"] != true {
		t.Errorf("flagged mismatch: got %v", props["flagged"])
	}
	profileJSON, _ := props["profileJson"].(string)
	if profileJSON == "" {
		t.Fatal("expected serialized profile")
	}
}

func TestRepository_InsertUserGeneratesID(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	id, err := repo.InsertUser(context.Background(), domain.User{Name: "No ID"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}
}

func TestRepository_GetUserMissing(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	user, err := repo.GetUser(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestRepository_GetUsersPreservesOrder(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{"userId": "b", "name": "Bravo"},
		{"userId": "a", "name": "Alpha"},
	}})
	repo := New(mem)

	users, err := repo.GetUsers(context.Background(), []string{"a", "missing", "b"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(users))
	}
	if users[0] == nil || users[0].ID != "a" {
		t.Fatalf("expected first entry a, got %+v", users[0])
	}
	if users[1] != nil {
		t.Fatalf("expected nil for missing id, got %+v", users[1])
	}
	if users[2] == nil || users[2].ID != "b" {
		t.Fatalf("expected last entry b, got %+v", users[2])
	}

	calls := mem.ReadCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 read query, got %d", len(calls))
	}
	if calls[0].Query != getUsersCypher {
		t.Fatalf("unexpected query: %s", calls[0].Query)
	}
}

func TestRepository_UpdateUserStatus(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"userId": "usr-1"}}})
	repo := New(mem)

	found, err := repo.UpdateUserStatus(context.Background(), "usr-1", domain.UserStatusFrozen, domain.Action{
		Type:       "freeze",
		ExecutedBy: "analyst-3",
		ExecutedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !found {
		t.Fatal("expected user to be found")
	}

	call := mem.WriteCalls()[0]
	if call.Query != updateUserStatusCypher {
		t.Fatalf("unexpected query: %s", call.Query)
	}
	if call.Params["status"] != domain.UserStatusFrozen {
		t.Errorf("status mismatch: got %v", call.Params["status"])
	}
	if call.Params["actionId"] == "" {
		t.Error("expected a generated action id")
	}
}

func TestRepository_UpdateUserStatusMissingUser(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	found, err := repo.UpdateUserStatus(context.Background(), "ghost", domain.UserStatusFrozen, domain.Action{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found {
		t.Fatal("expected user to be missing")
	}
}

func TestRepository_InsertLinkRequiresEndpoints(t *testing.T) {
	repo := New(graph.NewMemoryClient())

	if _, err := repo.InsertLink(context.Background(), domain.Link{UserID: "u1"}); err == nil {
		t.Fatal("expected an error for missing entity id")
	}
}

func TestRepository_InsertLinkMissingEndpoint(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	_, err := repo.InsertLink(context.Background(), domain.Link{UserID: "u1", EntityID: "e1", Strength: 0.8})
	if err == nil {
		t.Fatal("expected an error when the match returns no records")
	}
}

func TestRepository_InsertLinkAppendsRelationship(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"linkId": "lnk-1"}}})
	repo := New(mem)

	first := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	id, err := repo.InsertLink(context.Background(), domain.Link{
		ID:        "lnk-1",
		UserID:    "u1",
		EntityID:  "e1",
		Strength:  0.91,
		FirstSeen: first,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != "lnk-1" {
		t.Fatalf("expected id lnk-1, got %s", id)
	}

	call := mem.WriteCalls()[0]
	if call.Query != insertLinkCypher {
		t.Fatalf("unexpected query: %s", call.Query)
	}
	if call.Params["strength"] != 0.91 {
		t.Errorf("strength mismatch: got %v", call.Params["strength"])
	}
}

func TestRepository_LinksByEntity(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{"linkId": "l1", "userId": "u1", "entityId": "e1", "strength": 0.8, "firstSeen": "2025-03-01T00:00:00Z"},
		{"linkId": "l2", "userId": "u2", "entityId": "e1", "strength": 0.9},
	}})
	repo := New(mem)

	links, err := repo.LinksByEntity(context.Background(), "e1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0].UserID != "u1" || links[1].UserID != "u2" {
		t.Fatalf("unexpected link users: %+v", links)
	}
	if links[0].FirstSeen.IsZero() {
		t.Error("expected firstSeen to parse")
	}

	call := mem.ReadCalls()[0]
	if call.Query != linksByEntityCypher {
		t.Fatalf("unexpected query: %s", call.Query)
	}
	if call.Params["entityId"] != "e1" {
		t.Errorf("entityId mismatch: got %v", call.Params["entityId"])
	}
}

func TestRepository_InsertAlertSerializesEvidence(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"alertId": "al-1"}}})
	repo := New(mem)

	_, err := repo.InsertAlert(context.Background(), domain.Alert{
		ID:            "al-1",
		UserID:        "u1",
		Trigger:       "Velocity Check",
		RiskScore:     94,
		Status:        domain.AlertStatusNew,
		IsRealtime:    true,
		AttackBatchID: "batch-9",
		EvidenceTxIDs: []string{"tx-1", "tx-2"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	props, ok := mem.WriteCalls()[0].Params["props"].(map[string]any)
	if !ok {
		t.Fatal("expected props map")
	}
	if props["attackBatchId"] != "batch-9" {
		t.Errorf("attackBatchId mismatch: got %v", props["attackBatchId"])
	}
	evidence, ok := props["evidenceTxIds"].([]string)
	if !ok || len(evidence) != 2 {
		t.Fatalf("expected 2 evidence tx ids, got %v", props["evidenceTxIds"])
	}
}

func TestRepository_ListAlerts(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{
			"alertId":       "al-2",
			"userId":        "u2",
			"trigger":       "Structuring Pattern",
			"riskScore":     91.0,
			"status":        domain.AlertStatusNew,
			"isRealtime":    true,
			"attackBatchId": "batch-1",
			"evidenceTxIds": []any{"tx-1"},
			"createdAt":     "2025-04-02T10:00:00Z",
			"userName":      "Second User",
		},
	}})
	repo := New(mem)

	alerts, err := repo.ListAlerts(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}

	alert := alerts[0]
	if alert.UserName != "Second User" {
		t.Errorf("userName mismatch: got %s", alert.UserName)
	}
	if !alert.IsRealtime || alert.AttackBatchID != "batch-1" {
		t.Errorf("realtime flags mismatch: %+v", alert.Alert)
	}
	if len(alert.EvidenceTxIDs) != 1 || alert.EvidenceTxIDs[0] != "tx-1" {
		t.Errorf("evidence mismatch: %v", alert.EvidenceTxIDs)
	}

	call := mem.ReadCalls()[0]
	if call.Params["limit"] != 10 {
		t.Errorf("limit mismatch: got %v", call.Params["limit"])
	}
}

func TestRepository_PropagatesClientErrors(t *testing.T) {
	boom := errors.New("connection reset")
	mem := graph.NewMemoryClient().WithError(boom)
	repo := New(mem)

	if _, err := repo.GetUser(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
	if _, err := repo.InsertEntity(context.Background(), domain.Entity{Type: domain.EntityTypeIP}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}
