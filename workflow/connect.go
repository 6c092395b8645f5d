package workflow

import "fmt"

// Rejection explains why a proposed connection or workflow was turned down.
// Rejections are expected, reportable outcomes surfaced to the user; they are
// deliberately not errors.
type Rejection struct {
	Reason string
}

func (rejection *Rejection) String() string {
	return rejection.Reason
}

// CanConnect decides whether a directed edge from sourceID to targetID would
// be legal in the given graph. It returns nil when the connection is allowed
// and a Rejection with the specific reason otherwise.
//
// The checks run in order:
//  1. both IDs must resolve to existing nodes,
//  2. the target must not already have an incoming connection,
//  3. the type pair must be input -> generator or generator -> output.
//
// CanConnect is pure: it never mutates the graph and is safe to call
// repeatedly and concurrently.
func CanConnect(graph Graph, sourceID, targetID string) *Rejection {
	source, sourceExists := graph.NodeByID(sourceID)
	target, targetExists := graph.NodeByID(targetID)
	if !sourceExists || !targetExists {
		return &Rejection{Reason: "unknown node"}
	}

	if graph.InDegree(targetID) > 0 {
		return &Rejection{Reason: "target already has an incoming connection"}
	}

	if !allowedPair(source.Type, target.Type) {
		return &Rejection{
			Reason: fmt.Sprintf("incompatible node types: %s → %s", source.Type, target.Type),
		}
	}

	return nil
}

// allowedPair reports whether the source type may feed the target type.
// Self-loops fall out naturally: no type may feed itself.
func allowedPair(sourceType, targetType NodeType) bool {
	switch sourceType {
	case NodeTypeInput:
		return targetType == NodeTypeGenerator
	case NodeTypeGenerator:
		return targetType == NodeTypeOutput
	case NodeTypeOutput:
		return false
	}
	return false
}
