// Package repository persists the investigation data model to a Cypher
// graph database and serves the read surface the ring builder consumes.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TraFost/case-pilot/internal/domain"
	"github.com/TraFost/case-pilot/internal/graph"
)

// Repository encapsulates graph persistence operations. It implements the
// store contracts of the ring builder, the attack injector, and the demo
// seeder.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// InsertUser creates a user node, assigning an id when none is provided.
func (r *Repository) InsertUser(ctx context.Context, user domain.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	profileJSON, err := json.Marshal(user.Profile)
	if err != nil {
		return "", fmt.Errorf("serialize profile: %w", err)
	}

	params := map[string]any{
		"userId": user.ID,
		"props": map[string]any{
			"name":          user.Name,
			"email":         user.Email,
			"accountType":   user.AccountType,
			"flagged":       user.Flagged,
			"riskScore":     user.RiskScore,
			"status":        user.Status,
			"lastLoginIp":   user.LastLoginIP,
			"walletAddress": user.WalletAddress,
			"profileJson":   string(profileJSON),
			"createdAt":     formatTime(user.CreatedAt),
		},
	}

	if _, err := r.client.ExecuteWrite(ctx, insertUserCypher, params); err != nil {
		return "", fmt.Errorf("insert user %s: %w", user.ID, err)
	}
	return user.ID, nil
}

// GetUser resolves a user by id, returning nil when absent.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, errors.New("user id is required")
	}

	res, err := r.client.ExecuteRead(ctx, getUserCypher, map[string]any{"userId": id})
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	user := recordToUser(res.Records[0])
	return &user, nil
}

// GetUsers batch-resolves users. The result preserves input order with nil
// entries for ids that do not resolve.
func (r *Repository) GetUsers(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	res, err := r.client.ExecuteRead(ctx, getUsersCypher, map[string]any{"userIds": ids})
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	byID := make(map[string]domain.User, len(res.Records))
	for _, record := range res.Records {
		user := recordToUser(record)
		byID[user.ID] = user
	}

	out := make([]*domain.User, len(ids))
	for i, id := range ids {
		if user, ok := byID[id]; ok {
			u := user
			out[i] = &u
		}
	}
	return out, nil
}

// SampleUsers returns up to limit users ordered by creation time.
func (r *Repository) SampleUsers(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 50
	}

	res, err := r.client.ExecuteRead(ctx, sampleUsersCypher, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("sample users: %w", err)
	}

	users := make([]domain.User, 0, len(res.Records))
	for _, record := range res.Records {
		users = append(users, recordToUser(record))
	}
	return users, nil
}

// UpdateUserStatus applies an enforcement status change and records the
// action alongside it. Returns false when the user does not exist.
func (r *Repository) UpdateUserStatus(ctx context.Context, userID, status string, action domain.Action) (bool, error) {
	if userID == "" {
		return false, errors.New("user id is required")
	}
	if action.ID == "" {
		action.ID = uuid.NewString()
	}

	params := map[string]any{
		"userId":     userID,
		"status":     status,
		"actionId":   action.ID,
		"actionType": action.Type,
		"executedBy": action.ExecutedBy,
		"executedAt": formatTime(action.ExecutedAt),
		"result":     action.Result,
		"notes":      action.Notes,
	}

	res, err := r.client.ExecuteWrite(ctx, updateUserStatusCypher, params)
	if err != nil {
		return false, fmt.Errorf("update status for user %s: %w", userID, err)
	}
	return len(res.Records) > 0, nil
}

// InsertEntity creates an entity node, assigning an id when none is
// provided. Entities are append-only; this never merges.
func (r *Repository) InsertEntity(ctx context.Context, entity domain.Entity) (string, error) {
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}

	params := map[string]any{
		"entityId": entity.ID,
		"props": map[string]any{
			"type":       entity.Type,
			"value":      entity.Value,
			"riskLevel":  entity.RiskLevel,
			"lastActive": formatTime(entity.LastActive),
		},
	}

	if _, err := r.client.ExecuteWrite(ctx, insertEntityCypher, params); err != nil {
		return "", fmt.Errorf("insert entity %s: %w", entity.ID, err)
	}
	return entity.ID, nil
}

// GetEntity resolves an entity by id, returning nil when absent.
func (r *Repository) GetEntity(ctx context.Context, id string) (*domain.Entity, error) {
	if id == "" {
		return nil, errors.New("entity id is required")
	}

	res, err := r.client.ExecuteRead(ctx, getEntityCypher, map[string]any{"entityId": id})
	if err != nil {
		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	entity := recordToEntity(res.Records[0])
	return &entity, nil
}

// GetEntities batch-resolves entities, order-preserving, nil for missing.
func (r *Repository) GetEntities(ctx context.Context, ids []string) ([]*domain.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	res, err := r.client.ExecuteRead(ctx, getEntitiesCypher, map[string]any{"entityIds": ids})
	if err != nil {
		return nil, fmt.Errorf("get entities: %w", err)
	}

	byID := make(map[string]domain.Entity, len(res.Records))
	for _, record := range res.Records {
		entity := recordToEntity(record)
		byID[entity.ID] = entity
	}

	out := make([]*domain.Entity, len(ids))
	for i, id := range ids {
		if entity, ok := byID[id]; ok {
			e := entity
			out[i] = &e
		}
	}
	return out, nil
}

// InsertLink appends a link relationship between a user and an entity.
// Repeat observations of the same pair create additional relationships
// rather than updating an existing one.
func (r *Repository) InsertLink(ctx context.Context, link domain.Link) (string, error) {
	if link.UserID == "" || link.EntityID == "" {
		return "", errors.New("link requires both user and entity ids")
	}
	if link.ID == "" {
		link.ID = uuid.NewString()
	}

	params := map[string]any{
		"linkId":    link.ID,
		"userId":    link.UserID,
		"entityId":  link.EntityID,
		"strength":  link.Strength,
		"firstSeen": formatTime(link.FirstSeen),
	}

	res, err := r.client.ExecuteWrite(ctx, insertLinkCypher, params)
	if err != nil {
		return "", fmt.Errorf("insert link %s: %w", link.ID, err)
	}
	if len(res.Records) == 0 {
		return "", fmt.Errorf("insert link %s: user or entity not found", link.ID)
	}
	return link.ID, nil
}

// LinksByUser returns every link row originating from userID.
func (r *Repository) LinksByUser(ctx context.Context, userID string) ([]domain.Link, error) {
	res, err := r.client.ExecuteRead(ctx, linksByUserCypher, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("links by user %s: %w", userID, err)
	}
	return recordsToLinks(res.Records), nil
}

// LinksByEntity returns every link row pointing at entityID. This is the
// hop-2 fan-out read that surfaces shared infrastructure.
func (r *Repository) LinksByEntity(ctx context.Context, entityID string) ([]domain.Link, error) {
	res, err := r.client.ExecuteRead(ctx, linksByEntityCypher, map[string]any{"entityId": entityID})
	if err != nil {
		return nil, fmt.Errorf("links by entity %s: %w", entityID, err)
	}
	return recordsToLinks(res.Records), nil
}

// InsertTransaction creates a transaction node tied to its user.
func (r *Repository) InsertTransaction(ctx context.Context, tx domain.Transaction) (string, error) {
	if tx.UserID == "" {
		return "", errors.New("transaction requires a user id")
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	metaJSON, err := json.Marshal(tx.Meta)
	if err != nil {
		return "", fmt.Errorf("serialize transaction meta: %w", err)
	}

	params := map[string]any{
		"transactionId": tx.ID,
		"userId":        tx.UserID,
		"props": map[string]any{
			"amount":       tx.Amount,
			"currency":     tx.Currency,
			"type":         tx.Type,
			"timestamp":    formatTime(tx.Timestamp),
			"counterparty": tx.Counterparty,
			"isFraud":      tx.IsFraud,
			"fraudTag":     tx.FraudTag,
			"metaJson":     string(metaJSON),
		},
	}

	res, err := r.client.ExecuteWrite(ctx, insertTransactionCypher, params)
	if err != nil {
		return "", fmt.Errorf("insert transaction %s: %w", tx.ID, err)
	}
	if len(res.Records) == 0 {
		return "", fmt.Errorf("insert transaction %s: user not found", tx.ID)
	}
	return tx.ID, nil
}

// InsertAlert creates an alert node tied to its user.
func (r *Repository) InsertAlert(ctx context.Context, alert domain.Alert) (string, error) {
	if alert.UserID == "" {
		return "", errors.New("alert requires a user id")
	}
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}

	params := map[string]any{
		"alertId": alert.ID,
		"userId":  alert.UserID,
		"props": map[string]any{
			"userId":        alert.UserID,
			"trigger":       alert.Trigger,
			"riskScore":     alert.RiskScore,
			"amount":        alert.Amount,
			"status":        alert.Status,
			"createdAt":     formatTime(alert.CreatedAt),
			"isRealtime":    alert.IsRealtime,
			"attackBatchId": alert.AttackBatchID,
			"evidenceTxIds": alert.EvidenceTxIDs,
		},
	}

	res, err := r.client.ExecuteWrite(ctx, insertAlertCypher, params)
	if err != nil {
		return "", fmt.Errorf("insert alert %s: %w", alert.ID, err)
	}
	if len(res.Records) == 0 {
		return "", fmt.Errorf("insert alert %s: user not found", alert.ID)
	}
	return alert.ID, nil
}

// GetAlert resolves an alert by id, returning nil when absent.
func (r *Repository) GetAlert(ctx context.Context, id string) (*domain.Alert, error) {
	if id == "" {
		return nil, errors.New("alert id is required")
	}

	res, err := r.client.ExecuteRead(ctx, getAlertCypher, map[string]any{"alertId": id})
	if err != nil {
		return nil, fmt.Errorf("get alert %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	alert := recordToAlert(res.Records[0])
	return &alert, nil
}

// ListAlerts returns up to limit alerts newest-first with the subject's
// name joined in for list views. A non-positive limit falls back to 50.
func (r *Repository) ListAlerts(ctx context.Context, limit int) ([]domain.AlertWithUser, error) {
	if limit <= 0 {
		limit = 50
	}
	res, err := r.client.ExecuteRead(ctx, listAlertsCypher, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	out := make([]domain.AlertWithUser, 0, len(res.Records))
	for _, record := range res.Records {
		out = append(out, domain.AlertWithUser{
			Alert:    recordToAlert(record),
			UserName: toString(record["userName"]),
		})
	}
	return out, nil
}

func recordToUser(record graph.Record) domain.User {
	user := domain.User{
		ID:            toString(record["userId"]),
		Name:          toString(record["name"]),
		Email:         toString(record["email"]),
		AccountType:   toString(record["accountType"]),
		Flagged:       toBool(record["flagged"]),
		RiskScore:     toFloat64(record["riskScore"]),
		Status:        toString(record["status"]),
		LastLoginIP:   toString(record["lastLoginIp"]),
		WalletAddress: toString(record["walletAddress"]),
	}
	if raw := toString(record["profileJson"]); raw != "" {
		_ = json.Unmarshal([]byte(raw), &user.Profile)
	}
	if created := toTimePtr(record["createdAt"]); created != nil {
		user.CreatedAt = *created
	}
	return user
}

func recordToEntity(record graph.Record) domain.Entity {
	entity := domain.Entity{
		ID:        toString(record["entityId"]),
		Type:      toString(record["type"]),
		Value:     toString(record["value"]),
		RiskLevel: toString(record["riskLevel"]),
	}
	if last := toTimePtr(record["lastActive"]); last != nil {
		entity.LastActive = *last
	}
	return entity
}

func recordToAlert(record graph.Record) domain.Alert {
	alert := domain.Alert{
		ID:            toString(record["alertId"]),
		UserID:        toString(record["userId"]),
		Trigger:       toString(record["trigger"]),
		RiskScore:     toFloat64(record["riskScore"]),
		Amount:        toFloat64(record["amount"]),
		Status:        toString(record["status"]),
		IsRealtime:    toBool(record["isRealtime"]),
		AttackBatchID: toString(record["attackBatchId"]),
		EvidenceTxIDs: toStringSlice(record["evidenceTxIds"]),
	}
	if created := toTimePtr(record["createdAt"]); created != nil {
		alert.CreatedAt = *created
	}
	return alert
}

func recordsToLinks(records []graph.Record) []domain.Link {
	links := make([]domain.Link, 0, len(records))
	for _, record := range records {
		link := domain.Link{
			ID:       toString(record["linkId"]),
			UserID:   toString(record["userId"]),
			EntityID: toString(record["entityId"]),
			Strength: toFloat64(record["strength"]),
		}
		if seen := toTimePtr(record["firstSeen"]); seen != nil {
			link.FirstSeen = *seen
		}
		links = append(links, link)
	}
	return links
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toBool(val any) bool {
	b, _ := val.(bool)
	return b
}

func toStringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}
