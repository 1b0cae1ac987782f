// Package ring reconstructs fraud-ring linkage graphs. Given a seed user
// it expands two hops — the user's entities, then every other user sharing
// any of those entities — and returns a deduplicated node/edge graph with
// suspect / shared / mule classification for the caller to render.
package ring

import (
	"context"
	"fmt"

	"github.com/TraFost/case-pilot/internal/domain"
)

// Store is the read-only storage contract the builder requires.
type Store interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUsers(ctx context.Context, ids []string) ([]*domain.User, error)
	GetEntity(ctx context.Context, id string) (*domain.Entity, error)
	GetEntities(ctx context.Context, ids []string) ([]*domain.Entity, error)
	LinksByUser(ctx context.Context, userID string) ([]domain.Link, error)
	LinksByEntity(ctx context.Context, entityID string) ([]domain.Link, error)
	GetAlert(ctx context.Context, id string) (*domain.Alert, error)
}

// Builder assembles ring graphs from stored link and entity rows. It holds
// no state of its own and is safe for concurrent use.
type Builder struct {
	store Store
}

// NewBuilder constructs a Builder backed by the supplied store.
func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

// UserNodeID returns the namespaced graph node id for a user.
func UserNodeID(userID string) string { return "user-" + userID }

// EntityNodeID returns the namespaced graph node id for an entity.
func EntityNodeID(entityID string) string { return "entity-" + entityID }

// BuildByAlert resolves the alert's subject and builds the ring graph
// around them. A nil graph means the alert does not exist; that is a
// benign empty result, not an error.
func (b *Builder) BuildByAlert(ctx context.Context, alertID string) (*domain.RingGraph, error) {
	alert, err := b.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("resolve alert %s: %w", alertID, err)
	}
	if alert == nil {
		return nil, nil
	}
	return b.BuildByUser(ctx, alert.UserID)
}

// BuildByUser computes the two-hop ring graph around the seed user: the
// seed's entities (hop 1), then every user linked to any of those entities
// (hop 2). Expansion stops there; mules are not themselves expanded.
//
// A nil graph means the seed user does not exist. A non-nil graph with a
// single suspect node and no edges means the subject exists but has no
// linked entities.
func (b *Builder) BuildByUser(ctx context.Context, seedUserID string) (*domain.RingGraph, error) {
	seed, err := b.store.GetUser(ctx, seedUserID)
	if err != nil {
		return nil, fmt.Errorf("resolve seed user %s: %w", seedUserID, err)
	}
	if seed == nil {
		return nil, nil
	}

	acc := newAccumulator()
	acc.addNode(domain.RingNode{
		ID:    UserNodeID(seed.ID),
		Label: seed.Name,
		Type:  domain.RingNodeSuspect,
	})

	// Hop 1: the seed's own entities.
	seedLinks, err := b.store.LinksByUser(ctx, seed.ID)
	if err != nil {
		return nil, fmt.Errorf("load links for user %s: %w", seed.ID, err)
	}

	entityIDs := make([]string, 0, len(seedLinks))
	seenEntity := make(map[string]struct{}, len(seedLinks))
	for _, link := range seedLinks {
		if _, ok := seenEntity[link.EntityID]; ok {
			continue
		}
		seenEntity[link.EntityID] = struct{}{}
		entityIDs = append(entityIDs, link.EntityID)
	}

	entities, err := b.store.GetEntities(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve entities: %w", err)
	}

	resolved := make([]domain.Entity, 0, len(entities))
	for _, entity := range entities {
		if entity == nil {
			// Dangling link row; skip rather than fabricate a node.
			continue
		}
		resolved = append(resolved, *entity)
		acc.addNode(domain.RingNode{
			ID:    EntityNodeID(entity.ID),
			Label: entityLabel(*entity),
			Type:  domain.RingNodeShared,
		})
	}

	// Hop 2: fan out to every user that ever touched a hop-1 entity.
	type hop2 struct {
		userID string
		entity domain.Entity
	}
	var fanout []hop2
	userIDs := make([]string, 0)
	seenUser := map[string]struct{}{seed.ID: {}}

	for _, entity := range resolved {
		entityLinks, err := b.store.LinksByEntity(ctx, entity.ID)
		if err != nil {
			return nil, fmt.Errorf("load links for entity %s: %w", entity.ID, err)
		}
		for _, link := range entityLinks {
			fanout = append(fanout, hop2{userID: link.UserID, entity: entity})
			if _, ok := seenUser[link.UserID]; ok {
				continue
			}
			seenUser[link.UserID] = struct{}{}
			userIDs = append(userIDs, link.UserID)
		}
	}

	users, err := b.store.GetUsers(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve ring users: %w", err)
	}
	userByID := make(map[string]domain.User, len(users))
	for _, user := range users {
		if user != nil {
			userByID[user.ID] = *user
		}
	}

	for _, h := range fanout {
		if h.userID != seed.ID {
			user, ok := userByID[h.userID]
			if !ok {
				// Link to a vanished user; no node, no edge.
				continue
			}
			acc.addNode(domain.RingNode{
				ID:    UserNodeID(user.ID),
				Label: user.Name,
				Type:  domain.RingNodeMule,
			})
		}
		source := UserNodeID(h.userID)
		target := EntityNodeID(h.entity.ID)
		acc.addEdge(domain.RingEdge{
			ID:     source + "-" + target,
			Source: source,
			Target: target,
			Label:  h.entity.Type,
		})
	}

	return acc.graph(), nil
}

// entityLabel prefers the entity's literal value, falling back to its type
// when the value is empty.
func entityLabel(e domain.Entity) string {
	if e.Value != "" {
		return e.Value
	}
	return e.Type
}

// accumulator deduplicates nodes and edges by id while preserving first
// insertion order. First write wins; labels and types are invariant per id
// within one invocation, so later duplicates carry nothing new.
type accumulator struct {
	nodes   []domain.RingNode
	edges   []domain.RingEdge
	nodeIDs map[string]struct{}
	edgeIDs map[string]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{
		nodeIDs: make(map[string]struct{}),
		edgeIDs: make(map[string]struct{}),
	}
}

func (a *accumulator) addNode(n domain.RingNode) {
	if _, ok := a.nodeIDs[n.ID]; ok {
		return
	}
	a.nodeIDs[n.ID] = struct{}{}
	a.nodes = append(a.nodes, n)
}

func (a *accumulator) addEdge(e domain.RingEdge) {
	if _, ok := a.edgeIDs[e.ID]; ok {
		return
	}
	a.edgeIDs[e.ID] = struct{}{}
	a.edges = append(a.edges, e)
}

func (a *accumulator) graph() *domain.RingGraph {
	nodes := a.nodes
	if nodes == nil {
		nodes = []domain.RingNode{}
	}
	edges := a.edges
	if edges == nil {
		edges = []domain.RingEdge{}
	}
	return &domain.RingGraph{Nodes: nodes, Edges: edges}
}
