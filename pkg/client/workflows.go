package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dukex/flowcanvas/pkg/models"
)

func (c *Client) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	var workflows []models.Workflow

	if err := c.do(ctx, "list_workflows", http.MethodGet, "/workflows", nil, &workflows); err != nil {
		return nil, err
	}

	if workflows == nil {
		workflows = []models.Workflow{}
	}

	return workflows, nil
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	if err := c.do(ctx, "get_workflow", http.MethodGet, workflowPath(id), nil, &workflow); err != nil {
		return nil, err
	}

	return &workflow, nil
}

// CreateWorkflow persists a new workflow; the id of w is ignored and assigned by the service.
func (c *Client) CreateWorkflow(ctx context.Context, w models.Workflow) (*models.Workflow, error) {
	w.ID = ""

	if w.Components == nil {
		w.Components = []models.Component{}
	}

	if w.Connections == nil {
		w.Connections = []models.Connection{}
	}

	if w.Configurations == nil {
		w.Configurations = map[string]any{}
	}

	var created models.Workflow

	if err := c.do(ctx, "create_workflow", http.MethodPost, "/workflows", w, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

func (c *Client) UpdateWorkflow(ctx context.Context, id string, patch models.WorkflowPatch) (*models.Workflow, error) {
	var updated models.Workflow

	if err := c.do(ctx, "update_workflow", http.MethodPut, workflowPath(id), patch, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	return c.do(ctx, "delete_workflow", http.MethodDelete, workflowPath(id), nil, nil)
}

func (c *Client) ValidateWorkflow(ctx context.Context, graph models.Graph) (*models.ValidationResult, error) {
	if graph.Components == nil {
		graph.Components = []models.Component{}
	}

	if graph.Connections == nil {
		graph.Connections = []models.Connection{}
	}

	var result models.ValidationResult

	if err := c.do(ctx, "validate_workflow", http.MethodPost, "/workflows/validate", graph, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func workflowPath(id string) string {
	return "/workflows/" + url.PathEscape(id)
}
