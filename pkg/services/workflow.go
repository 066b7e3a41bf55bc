package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowcanvas/pkg/eventbus"
	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

// Workflow manages the workflows of authenticated owners. A workflow owned by someone else is
// reported as not found.
type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewWorkflow creates a new workflow service. Changes are announced on publisher when it is
// not nil.
func NewWorkflow(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
	tracer trace.Tracer,
) *Workflow {
	return &Workflow{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "workflow_service"),
		tracer:      tracer,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns the owner's workflows, newest first.
func (w *Workflow) List(ctx context.Context, owner string) ([]*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.list",
		attribute.String(otelhelper.OwnerIDKey, owner))
	defer span.End()

	if owner == "" {
		return nil, ErrEmptyOwnerID
	}

	workflows, err := w.persistence.WorkflowRepository().ListByOwner(ctx, owner)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID returns one of the owner's workflows.
func (w *Workflow) FetchByID(ctx context.Context, owner, id string) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.fetch",
		attribute.String(otelhelper.OwnerIDKey, owner),
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	workflow, err := w.fetchOwned(ctx, owner, id, "FetchByID")
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return workflow, nil
}

// Create persists a new workflow for owner. Any client supplied id is ignored.
func (w *Workflow) Create(ctx context.Context, owner string, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.create",
		attribute.String(otelhelper.OwnerIDKey, owner),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.Int(otelhelper.ComponentCountKey, len(workflow.Components)))
	defer span.End()

	if owner == "" {
		return nil, ErrEmptyOwnerID
	}

	if strings.TrimSpace(workflow.Name) == "" {
		return nil, NewValidationError("Create", "name_required", "Workflow name is required", ErrWorkflowNameRequired)
	}

	workflow.ID = ""
	workflow.Owner = owner
	workflow.CreatedAt = nil

	err := w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, workflow.ID))
	w.logger.InfoContext(ctx, "Workflow created", "workflow_id", workflow.ID, "owner", owner)

	w.publish(ctx, workflow.ID, events.WorkflowCreated{
		BaseEvent:  events.NewBaseEvent(events.WorkflowCreatedEvent, workflow.ID, owner),
		Name:       workflow.Name,
		Components: len(workflow.Components),
	})

	return workflow, nil
}

// Update shallow-merges patch into the owner's workflow and stores the result.
func (w *Workflow) Update(ctx context.Context, owner, id string, patch models.WorkflowPatch) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.update",
		attribute.String(otelhelper.OwnerIDKey, owner),
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	workflow, err := w.fetchOwned(ctx, owner, id, "Update")
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	patch.Apply(workflow)

	if strings.TrimSpace(workflow.Name) == "" {
		return nil, NewValidationError("Update", "name_required", "Workflow name is required", ErrWorkflowNameRequired)
	}

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.logger.DebugContext(ctx, "Workflow updated", "workflow_id", id, "components", len(workflow.Components))

	w.publish(ctx, id, events.WorkflowUpdated{
		BaseEvent:   events.NewBaseEvent(events.WorkflowUpdatedEvent, id, owner),
		Fields:      patch.Fields(),
		Components:  len(workflow.Components),
		Connections: len(workflow.Connections),
	})

	return workflow, nil
}

// Delete removes the owner's workflow.
func (w *Workflow) Delete(ctx context.Context, owner, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.delete",
		attribute.String(otelhelper.OwnerIDKey, owner),
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if _, err := w.fetchOwned(ctx, owner, id, "Delete"); err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	err := w.persistence.WorkflowRepository().Delete(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", id, "owner", owner)

	w.publish(ctx, id, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, id, owner),
	})

	return nil
}

func (w *Workflow) fetchOwned(ctx context.Context, owner, id, op string) (*models.Workflow, error) {
	if owner == "" {
		return nil, ErrEmptyOwnerID
	}

	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if workflow.Owner != owner {
		return nil, persistence.NewWorkflowError(op, id, ErrWorkflowNotFound)
	}

	return workflow, nil
}

// publish announces a change that is already stored, so failures are only logged.
func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	if err := w.publisher.Publish(ctx, key, event); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish workflow event", "type", event.GetType(), "workflow_id", key, "error", err)
	}
}
