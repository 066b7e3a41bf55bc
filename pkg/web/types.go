// Package web provides the HTTP handlers of the workflow service.
package web

import "github.com/dukex/flowcanvas/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name           string              `json:"name"                  validate:"required"`
	Description    string              `json:"description,omitempty"`
	Components     []models.Component  `json:"components"`
	Connections    []models.Connection `json:"connections"`
	Configurations map[string]any      `json:"configurations"`
}

// Workflow converts the request into a new workflow with non-nil collections.
func (r CreateWorkflowRequest) Workflow() *models.Workflow {
	workflow := &models.Workflow{
		Name:           r.Name,
		Description:    r.Description,
		Components:     r.Components,
		Connections:    r.Connections,
		Configurations: r.Configurations,
	}

	if workflow.Components == nil {
		workflow.Components = []models.Component{}
	}

	if workflow.Connections == nil {
		workflow.Connections = []models.Connection{}
	}

	if workflow.Configurations == nil {
		workflow.Configurations = map[string]any{}
	}

	return workflow
}
