// Package events defines the notifications emitted when stored workflows change.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "flowcanvas.workflows"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	WorkflowDeletedEvent EventType = "workflow.deleted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	OwnerID    string         `json:"owner_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowCreated struct {
	BaseEvent

	Name       string `json:"name"`
	Components int    `json:"components"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

// WorkflowUpdated lists the top-level fields the patch carried.
type WorkflowUpdated struct {
	BaseEvent

	Fields      []string `json:"fields"`
	Components  int      `json:"components"`
	Connections int      `json:"connections"`
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

func NewBaseEvent(eventType EventType, workflowID, ownerID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		OwnerID:    ownerID,
		Metadata:   make(map[string]any),
	}
}

// New returns an empty event of the given type, ready to be decoded into. It returns nil for
// unknown types.
func New(eventType EventType) any {
	switch eventType {
	case WorkflowCreatedEvent:
		return &WorkflowCreated{}
	case WorkflowUpdatedEvent:
		return &WorkflowUpdated{}
	case WorkflowDeletedEvent:
		return &WorkflowDeleted{}
	default:
		return nil
	}
}
