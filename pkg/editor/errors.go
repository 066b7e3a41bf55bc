package editor

import (
	"errors"
	"fmt"
)

var (
	ErrNoWorkflow    = errors.New("no workflow selected")
	ErrNotPersisted  = errors.New("workflow has not been saved yet")
	ErrNodeNotFound  = errors.New("node not found")
	ErrEdgeNotFound  = errors.New("connection not found")
	ErrUnknownKind   = errors.New("unknown component type")
	ErrKindImmutable = errors.New("component type cannot be changed")
	ErrInvalidHandle = errors.New("invalid handle")
	ErrNotRawConfig  = errors.New("component has a typed configuration")
)

// NodeError reports a failed operation on a single node.
type NodeError struct {
	Op     string
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
