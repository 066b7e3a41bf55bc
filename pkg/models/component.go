package models

// ComponentKind is the semantic type of a graph node.
type ComponentKind string

const (
	ComponentKindInput     ComponentKind = "input"
	ComponentKindProcess   ComponentKind = "process"
	ComponentKindOutput    ComponentKind = "output"
	ComponentKindCondition ComponentKind = "condition"
)

// ComponentKinds lists the built-in kinds in palette order.
var ComponentKinds = []ComponentKind{
	ComponentKindInput,
	ComponentKindProcess,
	ComponentKindOutput,
	ComponentKindCondition,
}

// IsBuiltin reports whether k is one of the four known kinds.
func (k ComponentKind) IsBuiltin() bool {
	switch k {
	case ComponentKindInput, ComponentKindProcess, ComponentKindOutput, ComponentKindCondition:
		return true
	default:
		return false
	}
}

// Position is a canvas coordinate. Cosmetic only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ComponentData carries the user-facing part of a component.
type ComponentData struct {
	Label  string         `json:"label"`
	Type   ComponentKind  `json:"type"`
	Config map[string]any `json:"config"`
}

// Component is a persisted graph node.
type Component struct {
	ID       string         `json:"id"       validate:"required"`
	Type     string         `json:"type"`
	Position Position       `json:"position"`
	Data     ComponentData  `json:"data"`
	Style    map[string]any `json:"style"`
}

// Connection is a persisted directed edge between two component handles.
type Connection struct {
	ID           string `json:"id"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}
