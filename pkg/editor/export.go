package editor

import (
	"encoding/json"
	"fmt"

	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

// Export renders the live graph as a standalone JSON document and returns it with its file name.
func (s *Session) Export() (string, []byte, error) {
	s.mu.Lock()
	doc := models.ExportDocument{}

	g := graph.ToWorkflow(s.nodes, s.edges)
	doc.Components = g.Components
	doc.Connections = g.Connections

	if s.workflow != nil {
		doc.Name = s.workflow.Name
		doc.Configurations = s.workflow.Configurations
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode export: %w", err)
	}

	return ExportFileName(doc.Name), data, nil
}

// ExportFileName returns the download name for a workflow export.
func ExportFileName(name string) string {
	if name == "" {
		name = "workflow"
	}

	return name + ".json"
}
