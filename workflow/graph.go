package workflow

// Graph is an immutable snapshot of the store's nodes and edges. The
// execution engine captures one at run start and operates on it for the
// whole run, so concurrent canvas edits cannot change the data mid-flight.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns the node with the given ID and whether it exists.
func (graph Graph) NodeByID(nodeID string) (Node, bool) {
	for _, node := range graph.Nodes {
		if node.ID == nodeID {
			return node, true
		}
	}
	return Node{}, false
}

// NodesOfType returns all nodes of the given type in insertion order.
func (graph Graph) NodesOfType(nodeType NodeType) []Node {
	matching := make([]Node, 0)
	for _, node := range graph.Nodes {
		if node.Type == nodeType {
			matching = append(matching, node)
		}
	}
	return matching
}

// InDegree counts the edges whose target is the given node.
func (graph Graph) InDegree(nodeID string) int {
	degree := 0
	for _, edge := range graph.Edges {
		if edge.Target == nodeID {
			degree++
		}
	}
	return degree
}

// HasEdge reports whether a directed edge from source to target exists.
func (graph Graph) HasEdge(sourceID, targetID string) bool {
	for _, edge := range graph.Edges {
		if edge.Source == sourceID && edge.Target == targetID {
			return true
		}
	}
	return false
}

// Targets returns the IDs of all nodes the given node has an edge to.
func (graph Graph) Targets(nodeID string) []string {
	targets := make([]string, 0)
	for _, edge := range graph.Edges {
		if edge.Source == nodeID {
			targets = append(targets, edge.Target)
		}
	}
	return targets
}
