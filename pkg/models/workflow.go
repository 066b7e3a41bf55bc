// Package models defines the wire records shared by the editor, the client and the service.
package models

import "time"

// Workflow is a named, persisted graph of components and connections.
type Workflow struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"                  validate:"required"`
	Description    string         `json:"description,omitempty"`
	Components     []Component    `json:"components"`
	Connections    []Connection   `json:"connections"`
	Configurations map[string]any `json:"configurations"`
	Owner          string         `json:"owner,omitempty"` // Set by the service, never required from clients
	CreatedAt      *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time     `json:"updatedAt,omitempty"`
}

// Graph is the structural part of a workflow: what the validator looks at.
type Graph struct {
	Components  []Component  `json:"components"`
	Connections []Connection `json:"connections"`
}

// Graph returns the workflow's components and connections.
func (w *Workflow) Graph() Graph {
	return Graph{Components: w.Components, Connections: w.Connections}
}

// WorkflowPatch is a partial update. Nil fields are left untouched by the service.
type WorkflowPatch struct {
	Name           *string         `json:"name,omitempty"           validate:"omitempty,min=1"`
	Description    *string         `json:"description,omitempty"`
	Components     *[]Component    `json:"components,omitempty"`
	Connections    *[]Connection   `json:"connections,omitempty"`
	Configurations *map[string]any `json:"configurations,omitempty"`
}

// GraphPatch builds a patch carrying only the graph.
func GraphPatch(graph Graph) WorkflowPatch {
	components := graph.Components
	connections := graph.Connections

	if components == nil {
		components = []Component{}
	}

	if connections == nil {
		connections = []Connection{}
	}

	return WorkflowPatch{Components: &components, Connections: &connections}
}

// IsEmpty reports whether the patch changes nothing.
func (p WorkflowPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Components == nil &&
		p.Connections == nil && p.Configurations == nil
}

// Fields returns the wire names of the fields the patch sets.
func (p WorkflowPatch) Fields() []string {
	fields := []string{}

	if p.Name != nil {
		fields = append(fields, "name")
	}

	if p.Description != nil {
		fields = append(fields, "description")
	}

	if p.Components != nil {
		fields = append(fields, "components")
	}

	if p.Connections != nil {
		fields = append(fields, "connections")
	}

	if p.Configurations != nil {
		fields = append(fields, "configurations")
	}

	return fields
}

// Apply shallow-merges the patch into w.
func (p WorkflowPatch) Apply(w *Workflow) {
	if p.Name != nil {
		w.Name = *p.Name
	}

	if p.Description != nil {
		w.Description = *p.Description
	}

	if p.Components != nil {
		w.Components = *p.Components
	}

	if p.Connections != nil {
		w.Connections = *p.Connections
	}

	if p.Configurations != nil {
		w.Configurations = *p.Configurations
	}
}

// ExportDocument is the standalone JSON artifact produced by the editor's export.
type ExportDocument struct {
	Name           string         `json:"name,omitempty"`
	Components     []Component    `json:"components"`
	Connections    []Connection   `json:"connections"`
	Configurations map[string]any `json:"configurations,omitempty"`
}
