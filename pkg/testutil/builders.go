// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/google/uuid"
)

// CreateTestWorkflow creates a workflow with one input and one output connected, with values
// that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	input := CreateTestComponent(models.ComponentKindInput)
	output := CreateTestComponent(models.ComponentKindOutput)

	workflow := &models.Workflow{
		Name:        "Test Workflow",
		Description: "A workflow used in tests",
		Components:  []models.Component{input, output},
		Connections: []models.Connection{{
			ID:           "reactflow__edge-" + input.ID + "right-" + output.ID + "left",
			Source:       input.ID,
			Target:       output.ID,
			SourceHandle: "right",
			TargetHandle: "left",
		}},
		Configurations: map[string]any{},
		Owner:          uuid.New().String(),
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// CreateTestComponent creates a valid component of kind.
func CreateTestComponent(kind models.ComponentKind) models.Component {
	config := map[string]any{}

	switch kind {
	case models.ComponentKindInput:
		config = map[string]any{"inputType": "text"}
	case models.ComponentKindProcess:
		config = map[string]any{"processType": "transform", "logic": "x * 2"}
	case models.ComponentKindOutput:
		config = map[string]any{"outputFormat": "csv", "fileName": "out.csv"}
	case models.ComponentKindCondition:
		config = map[string]any{"condition": "x > 1", "trueBranch": "True", "falseBranch": "False"}
	}

	return models.Component{
		ID:       string(kind) + "-" + uuid.New().String(),
		Type:     "customNode",
		Position: models.Position{X: 150, Y: 200},
		Data: models.ComponentData{
			Label:  string(kind) + " node",
			Type:   kind,
			Config: config,
		},
	}
}

// WithOwner sets the workflow owner.
func WithOwner(owner string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Owner = owner
	}
}

// WithName sets the workflow name.
func WithName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

// WithEmptyGraph removes all components and connections.
func WithEmptyGraph() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Components = []models.Component{}
		w.Connections = []models.Connection{}
	}
}

// CreateTestAccount creates an account with a unique email.
func CreateTestAccount() *models.Account {
	return &models.Account{
		User: models.User{
			Email: uuid.New().String() + "@example.com",
			Role:  models.RoleUser,
		},
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuu",
	}
}
