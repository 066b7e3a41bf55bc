package graph

import "fmt"

// Handle is one of the four attachment points of a node.
type Handle string

const (
	HandleTop    Handle = "top"    // incoming only
	HandleLeft   Handle = "left"   // incoming only
	HandleRight  Handle = "right"  // outgoing only
	HandleBottom Handle = "bottom" // outgoing only
)

// IsSourceHandle reports whether an edge may leave a node through h.
// The empty handle means the node's default source handle.
func IsSourceHandle(h string) bool {
	switch Handle(h) {
	case "", HandleRight, HandleBottom:
		return true
	default:
		return false
	}
}

// IsTargetHandle reports whether an edge may enter a node through h.
// The empty handle means the node's default target handle.
func IsTargetHandle(h string) bool {
	switch Handle(h) {
	case "", HandleLeft, HandleTop:
		return true
	default:
		return false
	}
}

// EdgeID builds the id the rendering surface assigns to a new edge.
func EdgeID(source, sourceHandle, target, targetHandle string) string {
	return fmt.Sprintf("reactflow__edge-%s%s-%s%s", source, sourceHandle, target, targetHandle)
}
