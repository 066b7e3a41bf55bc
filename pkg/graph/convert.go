package graph

import (
	"github.com/dukex/flowcanvas/pkg/models"
)

// ToWorkflow serializes the live graph into persisted components and connections.
func ToWorkflow(nodes []Node, edges []Edge) models.Graph {
	components := make([]models.Component, 0, len(nodes))

	for _, node := range nodes {
		nodeType := node.Type
		if nodeType == "" {
			nodeType = NodeKind
		}

		config := CloneMap(node.Data.Config)
		if config == nil {
			config = map[string]any{}
		}

		style := CloneMap(node.Style)
		if style == nil {
			style = map[string]any{}
		}

		components = append(components, models.Component{
			ID:       node.ID,
			Type:     nodeType,
			Position: node.Position,
			Data: models.ComponentData{
				Label:  node.Data.Label,
				Type:   node.Data.Type,
				Config: config,
			},
			Style: style,
		})
	}

	connections := make([]models.Connection, 0, len(edges))

	for _, edge := range edges {
		connections = append(connections, models.Connection{
			ID:           edge.ID,
			Source:       edge.Source,
			Target:       edge.Target,
			SourceHandle: edge.SourceHandle,
			TargetHandle: edge.TargetHandle,
		})
	}

	return models.Graph{Components: components, Connections: connections}
}

// ToEditorGraph derives a fresh live graph from a persisted workflow. A nil workflow yields an
// empty graph.
func ToEditorGraph(w *models.Workflow) ([]Node, []Edge) {
	if w == nil {
		return []Node{}, []Edge{}
	}

	nodes := make([]Node, 0, len(w.Components))

	for _, c := range w.Components {
		nodes = append(nodes, Node{
			ID:       c.ID,
			Type:     NodeKind,
			Position: c.Position,
			Data: NodeData{
				Label:  c.Data.Label,
				Type:   c.Data.Type,
				Config: CloneMap(c.Data.Config),
			},
			Style: CloneMap(c.Style),
		})
	}

	edges := make([]Edge, 0, len(w.Connections))

	for _, c := range w.Connections {
		edges = append(edges, Edge{
			ID:           c.ID,
			Source:       c.Source,
			Target:       c.Target,
			SourceHandle: c.SourceHandle,
			TargetHandle: c.TargetHandle,
		})
	}

	return nodes, edges
}

// CloneMap deep-copies a JSON-like map so the copy shares no mutable state with the source.
func CloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}

	return dst
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}

		return out
	default:
		return v
	}
}
