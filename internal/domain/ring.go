package domain

// Ring node classifications. Exactly one suspect node exists per graph: the
// investigation's seed user. Shared nodes are entities, mule nodes are the
// other users reached through them.
const (
	RingNodeSuspect = "suspect"
	RingNodeShared  = "shared"
	RingNodeMule    = "mule"
)

// RingNode is a vertex in a fraud ring graph. IDs are namespaced by kind
// ("user-<id>" / "entity-<id>") so raw user and entity identifiers can
// never collide.
type RingNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// RingEdge connects a user node to an entity node the user actually links
// to. Label carries the entity type for display.
type RingEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// RingGraph is the deduplicated node/edge set handed to the renderer. It is
// derived output and never persisted.
type RingGraph struct {
	Nodes []RingNode `json:"nodes"`
	Edges []RingEdge `json:"edges"`
}
