package workflow

import (
	"fmt"
	"sync"
)

// Store owns the authoritative set of nodes and edges. It is created
// explicitly with NewStore and scoped to the session that owns it.
//
// All methods are safe for concurrent use; the HTTP surface serving the
// canvas collaborator may call them from multiple goroutines. Mutations are
// confined to the store's own collections and never trigger a run.
type Store struct {
	mu           sync.RWMutex
	nodes        map[string]Node
	nodeOrder    []string
	edges        []Edge
	typeCounters map[NodeType]int
}

// NewStore creates an empty graph store.
func NewStore() *Store {
	return &Store{
		nodes:        make(map[string]Node),
		nodeOrder:    make([]string, 0),
		edges:        make([]Edge, 0),
		typeCounters: make(map[NodeType]int),
	}
}

// AddNode constructs a node of the given type with its default configuration,
// appends it and returns its ID. IDs are the node type plus a per-type
// creation counter, e.g. "generator-2".
//
// The type is caller-validated; AddNode itself never fails.
func (store *Store) AddNode(nodeType NodeType, position Position) string {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.typeCounters[nodeType]++
	nodeID := fmt.Sprintf("%s-%d", nodeType, store.typeCounters[nodeType])

	store.nodes[nodeID] = newNode(nodeID, nodeType, position)
	store.nodeOrder = append(store.nodeOrder, nodeID)

	return nodeID
}

// RemoveNode deletes the node and every edge referencing it, in one critical
// section so no dangling edge is ever observable. Removing an absent ID is a
// no-op.
func (store *Store) RemoveNode(nodeID string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.nodes[nodeID]; !exists {
		return
	}

	delete(store.nodes, nodeID)

	for index, orderedID := range store.nodeOrder {
		if orderedID == nodeID {
			store.nodeOrder = append(store.nodeOrder[:index], store.nodeOrder[index+1:]...)
			break
		}
	}

	remaining := store.edges[:0]
	for _, edge := range store.edges {
		if edge.Source != nodeID && edge.Target != nodeID {
			remaining = append(remaining, edge)
		}
	}
	store.edges = remaining
}

// UpdateConfig shallow-merges the patch into the node's configuration.
// Returns ErrNodeNotFound when the ID does not resolve.
func (store *Store) UpdateConfig(nodeID string, patch ConfigPatch) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	node, exists := store.nodes[nodeID]
	if !exists {
		return fmt.Errorf("update config for %q: %w", nodeID, ErrNodeNotFound)
	}

	node = node.clone()
	patch.apply(&node)
	store.nodes[nodeID] = node

	return nil
}

// MovePosition records the node's new canvas coordinates. Moving an absent
// node is a no-op; position is presentation state and never invalidates
// anything.
func (store *Store) MovePosition(nodeID string, position Position) {
	store.mu.Lock()
	defer store.mu.Unlock()

	node, exists := store.nodes[nodeID]
	if !exists {
		return
	}

	node.Position = position
	store.nodes[nodeID] = node
}

// AddEdge proposes a directed connection between two nodes. Legality is
// decided by CanConnect; on success the edge is appended and its ID returned.
// A rejection is a normal, reportable outcome carrying the specific reason,
// not an error.
func (store *Store) AddEdge(sourceID, targetID string) (string, *Rejection) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if rejection := CanConnect(store.snapshotLocked(), sourceID, targetID); rejection != nil {
		return "", rejection
	}

	edge := Edge{
		ID:     EdgeID(sourceID, targetID),
		Source: sourceID,
		Target: targetID,
	}
	store.edges = append(store.edges, edge)

	return edge.ID, nil
}

// RemoveEdge deletes the edge with the given ID. Removing an absent ID is a
// no-op.
func (store *Store) RemoveEdge(edgeID string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for index, edge := range store.edges {
		if edge.ID == edgeID {
			store.edges = append(store.edges[:index], store.edges[index+1:]...)
			return
		}
	}
}

// ResetResults clears the result of every output node back to nil. This is
// the only way a written result is ever cleared.
func (store *Store) ResetResults() {
	store.mu.Lock()
	defer store.mu.Unlock()

	for nodeID, node := range store.nodes {
		if node.Type != NodeTypeOutput {
			continue
		}
		node = node.clone()
		node.Output.Result = nil
		store.nodes[nodeID] = node
	}
}

// Node returns a copy of the node with the given ID.
func (store *Store) Node(nodeID string) (Node, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	node, exists := store.nodes[nodeID]
	if !exists {
		return Node{}, false
	}
	return node.clone(), true
}

// Nodes returns copies of all nodes in insertion order.
func (store *Store) Nodes() []Node {
	store.mu.RLock()
	defer store.mu.RUnlock()

	nodes := make([]Node, 0, len(store.nodeOrder))
	for _, nodeID := range store.nodeOrder {
		nodes = append(nodes, store.nodes[nodeID].clone())
	}
	return nodes
}

// Edges returns a copy of all edges.
func (store *Store) Edges() []Edge {
	store.mu.RLock()
	defer store.mu.RUnlock()

	edges := make([]Edge, len(store.edges))
	copy(edges, store.edges)
	return edges
}

// Snapshot returns a deep copy of the whole graph. The execution engine
// captures one at run start; later store mutations do not affect it.
func (store *Store) Snapshot() Graph {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.snapshotLocked()
}

// snapshotLocked builds the deep copy. Callers must hold at least a read lock.
func (store *Store) snapshotLocked() Graph {
	nodes := make([]Node, 0, len(store.nodeOrder))
	for _, nodeID := range store.nodeOrder {
		nodes = append(nodes, store.nodes[nodeID].clone())
	}

	edges := make([]Edge, len(store.edges))
	copy(edges, store.edges)

	return Graph{Nodes: nodes, Edges: edges}
}
