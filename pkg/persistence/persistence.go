// Package persistence provides the storage abstraction for workflows and user accounts.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/google/uuid"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	UserRepository() UserRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// WorkflowRepository stores workflows. Lookups of missing or deleted workflows return an error
// matching ErrWorkflowNotFound.
type WorkflowRepository interface {
	// ListByOwner returns the owner's workflows, newest first.
	ListByOwner(ctx context.Context, owner string) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	// Save inserts or replaces a workflow, assigning its id and timestamps.
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// UserRepository stores accounts. Emails are unique.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// PrepareWorkflow assigns a time-ordered id to a new workflow and stamps its timestamps.
func PrepareWorkflow(workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	if workflow.CreatedAt == nil || workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = &now
	}

	workflow.UpdatedAt = &now

	if workflow.Components == nil {
		workflow.Components = []models.Component{}
	}

	if workflow.Connections == nil {
		workflow.Connections = []models.Connection{}
	}

	if workflow.Configurations == nil {
		workflow.Configurations = map[string]any{}
	}

	return nil
}

// PrepareAccount assigns an id and creation time to a new account.
func PrepareAccount(account *models.Account) error {
	if account.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate user ID: %w", err)
		}

		account.ID = id.String()
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	if account.Role == "" {
		account.Role = models.RoleUser
	}

	return nil
}
