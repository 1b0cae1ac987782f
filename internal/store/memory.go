// Package store provides the in-memory implementation of the storage
// surface shared by the ring builder, the attack injector, and the demo
// seeder. It backs demo mode (no graph database configured) and the unit
// test suites.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/TraFost/case-pilot/internal/domain"
)

// Memory holds all rows in process memory behind a single RWMutex. Reads
// take the read lock only; the store is safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	users         map[string]domain.User
	userOrder     []string
	entities      map[string]domain.Entity
	links         []domain.Link
	linksByUser   map[string][]int // indexes into links
	linksByEntity map[string][]int
	transactions  map[string]domain.Transaction
	alerts        map[string]domain.Alert
	alertOrder    []string
	actions       []domain.Action
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]domain.User),
		entities:      make(map[string]domain.Entity),
		linksByUser:   make(map[string][]int),
		linksByEntity: make(map[string][]int),
		transactions:  make(map[string]domain.Transaction),
		alerts:        make(map[string]domain.Alert),
	}
}

// Probe implements the health check contract. The in-memory store is
// always reachable.
func (m *Memory) Probe(context.Context) error { return nil }

// InsertUser stores a user row, assigning an id when none is provided.
func (m *Memory) InsertUser(_ context.Context, user domain.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, exists := m.users[user.ID]; !exists {
		m.userOrder = append(m.userOrder, user.ID)
	}
	m.users[user.ID] = user
	return user.ID, nil
}

// GetUser returns the user row for id, or nil when absent.
func (m *Memory) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

// GetUsers batch-resolves user rows, order-preserving, nil for missing.
func (m *Memory) GetUsers(_ context.Context, ids []string) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.User, len(ids))
	for i, id := range ids {
		if user, ok := m.users[id]; ok {
			u := user
			out[i] = &u
		}
	}
	return out, nil
}

// SampleUsers returns up to limit users in insertion order.
func (m *Memory) SampleUsers(_ context.Context, limit int) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.userOrder) {
		limit = len(m.userOrder)
	}
	out := make([]domain.User, 0, limit)
	for _, id := range m.userOrder[:limit] {
		out = append(out, m.users[id])
	}
	return out, nil
}

// UpdateUserStatus sets the enforcement status of a user and records the
// action. Returns false when the user does not exist.
func (m *Memory) UpdateUserStatus(_ context.Context, userID, status string, action domain.Action) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return false, nil
	}
	user.Status = status
	m.users[userID] = user

	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	action.UserID = userID
	m.actions = append(m.actions, action)
	return true, nil
}

// InsertEntity stores an entity row, assigning an id when none is provided.
func (m *Memory) InsertEntity(_ context.Context, entity domain.Entity) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	m.entities[entity.ID] = entity
	return entity.ID, nil
}

// GetEntity returns the entity row for id, or nil when absent.
func (m *Memory) GetEntity(_ context.Context, id string) (*domain.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if entity, ok := m.entities[id]; ok {
		return &entity, nil
	}
	return nil, nil
}

// GetEntities batch-resolves entity rows, order-preserving, nil for missing.
func (m *Memory) GetEntities(_ context.Context, ids []string) ([]*domain.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Entity, len(ids))
	for i, id := range ids {
		if entity, ok := m.entities[id]; ok {
			e := entity
			out[i] = &e
		}
	}
	return out, nil
}

// InsertLink appends a link row. Links are append-only: repeat observations
// of the same (user, entity) pair accumulate rather than upsert.
func (m *Memory) InsertLink(_ context.Context, link domain.Link) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	idx := len(m.links)
	m.links = append(m.links, link)
	m.linksByUser[link.UserID] = append(m.linksByUser[link.UserID], idx)
	m.linksByEntity[link.EntityID] = append(m.linksByEntity[link.EntityID], idx)
	return link.ID, nil
}

// LinksByUser returns every link row whose user matches userID.
func (m *Memory) LinksByUser(_ context.Context, userID string) ([]domain.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	indexes := m.linksByUser[userID]
	out := make([]domain.Link, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, m.links[idx])
	}
	return out, nil
}

// LinksByEntity returns every link row whose entity matches entityID.
func (m *Memory) LinksByEntity(_ context.Context, entityID string) ([]domain.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	indexes := m.linksByEntity[entityID]
	out := make([]domain.Link, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, m.links[idx])
	}
	return out, nil
}

// InsertTransaction stores a transaction row.
func (m *Memory) InsertTransaction(_ context.Context, tx domain.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	m.transactions[tx.ID] = tx
	return tx.ID, nil
}

// InsertAlert stores an alert row.
func (m *Memory) InsertAlert(_ context.Context, alert domain.Alert) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if _, exists := m.alerts[alert.ID]; !exists {
		m.alertOrder = append(m.alertOrder, alert.ID)
	}
	m.alerts[alert.ID] = alert
	return alert.ID, nil
}

// GetAlert returns the alert row for id, or nil when absent.
func (m *Memory) GetAlert(_ context.Context, id string) (*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if alert, ok := m.alerts[id]; ok {
		return &alert, nil
	}
	return nil, nil
}

// ListAlerts returns up to limit alerts newest-first with the subject's
// display name joined in. A non-positive limit returns everything.
func (m *Memory) ListAlerts(_ context.Context, limit int) ([]domain.AlertWithUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.AlertWithUser, 0, len(m.alertOrder))
	for _, id := range m.alertOrder {
		alert := m.alerts[id]
		item := domain.AlertWithUser{Alert: alert}
		if user, ok := m.users[alert.UserID]; ok {
			item.UserName = user.Name
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
