package main

import (
	"context"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/eventbus"
	"github.com/dukex/flowcanvas/pkg/events"
)

// subscribeAuditLog logs every workflow change delivered by bus.
func subscribeAuditLog(ctx context.Context, bus eventbus.EventSubscriber, logger *slog.Logger) error {
	audit := logger.With("module", "audit")

	handlers := map[events.EventType]eventbus.EventHandler{
		events.WorkflowCreatedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.WorkflowCreated)
			audit.InfoContext(ctx, "Workflow created", "workflow_id", e.WorkflowID, "owner", e.OwnerID, "name", e.Name)

			return nil
		},
		events.WorkflowUpdatedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.WorkflowUpdated)
			audit.InfoContext(ctx, "Workflow updated", "workflow_id", e.WorkflowID, "owner", e.OwnerID,
				"fields", e.Fields, "components", e.Components, "connections", e.Connections)

			return nil
		},
		events.WorkflowDeletedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.WorkflowDeleted)
			audit.InfoContext(ctx, "Workflow deleted", "workflow_id", e.WorkflowID, "owner", e.OwnerID)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}
