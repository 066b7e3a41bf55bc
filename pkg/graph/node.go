// Package graph holds the live editor graph (nodes and edges as the rendering surface sees
// them) and converts it to and from the persisted workflow shape.
package graph

import "github.com/dukex/flowcanvas/pkg/models"

// NodeKind is the single node type the rendering surface draws every component with.
const NodeKind = "customNode"

// NodeData is the payload the rendering surface attaches to a node.
type NodeData struct {
	Label  string
	Type   models.ComponentKind
	Config map[string]any
}

// Node is a live editor node.
type Node struct {
	ID       string
	Type     string
	Position models.Position
	Data     NodeData
	Style    map[string]any
}

// Edge is a live editor edge.
type Edge struct {
	ID           string
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
}

// Touches reports whether the edge starts or ends at nodeID.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// SameEndpoints reports whether two edges connect the same handles.
func (e Edge) SameEndpoints(other Edge) bool {
	return e.Source == other.Source && e.Target == other.Target &&
		e.SourceHandle == other.SourceHandle && e.TargetHandle == other.TargetHandle
}
