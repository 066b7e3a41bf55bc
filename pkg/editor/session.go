// Package editor holds the live, possibly unsaved graph of the selected workflow and applies
// local edits to it.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/schema"
	"github.com/dukex/flowcanvas/pkg/store"
)

// Workflows is the part of the workflow store the editor depends on.
type Workflows interface {
	Current() *models.Workflow
	Subscribe(fn store.CurrentListener) func()
	Update(ctx context.Context, id string, patch models.WorkflowPatch) (*models.Workflow, error)
	Validate(ctx context.Context, g models.Graph) (models.ValidationResult, error)
}

type Option func(*Session)

// WithClock replaces the clock used for node ids.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand replaces the source of node positions.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rand = r }
}

// Session is the live node/edge graph of the current workflow.
type Session struct {
	workflows Workflows
	registry  *schema.Registry
	logger    *slog.Logger
	now       func() time.Time
	rand      *rand.Rand

	mu       sync.Mutex
	workflow *models.Workflow
	nodes    []graph.Node
	edges    []graph.Edge
	dirty    bool

	unsubscribe func()
}

// New builds a session bound to the current selection of workflows. The graph is re-derived
// every time the selection changes, discarding local edits.
func New(workflows Workflows, registry *schema.Registry, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		workflows: workflows,
		registry:  registry,
		logger:    logger.With("module", "editor"),
		now:       time.Now,
		rand:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.reset(workflows.Current())
	s.unsubscribe = workflows.Subscribe(s.reset)

	return s
}

// Close detaches the session from the store.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Session) reset(w *models.Workflow) {
	nodes, edges := graph.ToEditorGraph(w)

	s.mu.Lock()
	s.workflow = w
	s.nodes = nodes
	s.edges = edges
	s.dirty = false
	s.mu.Unlock()

	if w == nil {
		s.logger.Debug("Cleared editor graph")
		return
	}

	s.logger.Debug("Loaded editor graph", "workflow", w.Name, "nodes", len(nodes), "edges", len(edges))
}

// Workflow returns the workflow the graph was derived from, or nil.
func (s *Session) Workflow() *models.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workflow == nil {
		return nil
	}

	w := *s.workflow

	return &w
}

func (s *Session) Nodes() []graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.nodes)
}

func (s *Session) Edges() []graph.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.edges)
}

func (s *Session) Node(id string) (graph.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return graph.Node{}, false
	}

	return s.nodes[i], true
}

// Dirty reports whether the graph has local edits that were not saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

// Graph serializes the live graph.
func (s *Session) Graph() models.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	return graph.ToWorkflow(s.nodes, s.edges)
}

// AddNode places a new node of kind at a random position.
func (s *Session) AddNode(kind models.ComponentKind) (graph.Node, error) {
	if _, ok := s.registry.Definition(kind); !ok {
		return graph.Node{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workflow == nil {
		return graph.Node{}, ErrNoWorkflow
	}

	count := 0

	for _, n := range s.nodes {
		if n.Data.Type == kind {
			count++
		}
	}

	node := graph.Node{
		ID:   s.nextID(kind),
		Type: graph.NodeKind,
		Position: models.Position{
			X: s.rand.Float64()*300 + 100,
			Y: s.rand.Float64()*300 + 100,
		},
		Data: graph.NodeData{
			Label:  fmt.Sprintf("%s %d", s.registry.Label(kind), count+1),
			Type:   kind,
			Config: map[string]any{},
		},
	}

	s.nodes = append(s.nodes, node)
	s.dirty = true

	return node, nil
}

func (s *Session) nextID(kind models.ComponentKind) string {
	ms := s.now().UnixMilli()

	for {
		id := fmt.Sprintf("%s-%d", kind, ms)
		if s.indexOf(id) < 0 {
			return id
		}

		ms++
	}
}

// RemoveNode deletes a node and every connection touching it.
func (s *Session) RemoveNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &NodeError{Op: "remove", NodeID: id, Err: ErrNodeNotFound}
	}

	s.nodes = slices.Delete(s.nodes, i, i+1)
	s.edges = slices.DeleteFunc(s.edges, func(e graph.Edge) bool { return e.Touches(id) })
	s.dirty = true

	return nil
}

// MoveNode changes a node's position.
func (s *Session) MoveNode(id string, pos models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &NodeError{Op: "move", NodeID: id, Err: ErrNodeNotFound}
	}

	s.nodes[i].Position = pos
	s.dirty = true

	return nil
}

// Connect adds an edge from a source handle to a target handle. Connecting the same handles
// twice returns the existing edge. Endpoints are not required to exist.
func (s *Session) Connect(source, sourceHandle, target, targetHandle string) (graph.Edge, error) {
	if !graph.IsSourceHandle(sourceHandle) {
		return graph.Edge{}, fmt.Errorf("%w: %q cannot start a connection", ErrInvalidHandle, sourceHandle)
	}

	if !graph.IsTargetHandle(targetHandle) {
		return graph.Edge{}, fmt.Errorf("%w: %q cannot end a connection", ErrInvalidHandle, targetHandle)
	}

	edge := graph.Edge{
		ID:           graph.EdgeID(source, sourceHandle, target, targetHandle),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.edges {
		if e.SameEndpoints(edge) {
			return e, nil
		}
	}

	s.edges = append(s.edges, edge)
	s.dirty = true

	return edge, nil
}

// Disconnect removes an edge by id.
func (s *Session) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.edges, func(e graph.Edge) bool { return e.ID == edgeID })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
	}

	s.edges = slices.Delete(s.edges, i, i+1)
	s.dirty = true

	return nil
}

// ConfigOf decodes the configuration of a node.
func (s *Session) ConfigOf(id string) (schema.Config, error) {
	node, ok := s.Node(id)
	if !ok {
		return nil, &NodeError{Op: "config", NodeID: id, Err: ErrNodeNotFound}
	}

	return s.registry.Decode(node.Data.Type, node.Data.Config)
}

// Configure replaces a node's label and configuration. Display defaults are filled in before
// validation; on field errors the node is left untouched and the schema.FieldErrors returned.
func (s *Session) Configure(id, label string, cfg schema.Config) error {
	node, ok := s.Node(id)
	if !ok {
		return &NodeError{Op: "configure", NodeID: id, Err: ErrNodeNotFound}
	}

	if cfg == nil {
		cfg = s.registry.Defaults(node.Data.Type)
	}

	if cfg.Kind() != node.Data.Type {
		return &NodeError{Op: "configure", NodeID: id, Err: ErrKindImmutable}
	}

	cfg = schema.WithDefaults(cfg)

	if errs := s.registry.Validate(label, cfg); errs != nil {
		return errs
	}

	return s.setNodeData(id, label, schema.Encode(cfg))
}

// Rename changes a node's label only.
func (s *Session) Rename(id, label string) error {
	if errs := s.registry.Validate(label, nil); errs != nil {
		return errs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &NodeError{Op: "rename", NodeID: id, Err: ErrNodeNotFound}
	}

	s.nodes[i].Data.Label = label
	s.dirty = true

	return nil
}

// EditRawConfig applies a JSON edit to a node whose kind has no registered fields. Text that is
// not a JSON object is ignored and false is returned; the last good value stays in place.
func (s *Session) EditRawConfig(id, text string) (bool, error) {
	node, ok := s.Node(id)
	if !ok {
		return false, &NodeError{Op: "edit", NodeID: id, Err: ErrNodeNotFound}
	}

	cfg, err := s.registry.Decode(node.Data.Type, node.Data.Config)
	if err != nil {
		return false, err
	}

	raw, isRaw := cfg.(schema.RawConfig)
	if !isRaw {
		return false, &NodeError{Op: "edit", NodeID: id, Err: ErrNotRawConfig}
	}

	next, applied := schema.ApplyRawEdit(raw, text)
	if !applied {
		s.logger.Debug("Ignoring malformed raw configuration", "node", id)
		return false, nil
	}

	return true, s.setNodeData(id, node.Data.Label, schema.Encode(next))
}

func (s *Session) setNodeData(id, label string, config map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &NodeError{Op: "configure", NodeID: id, Err: ErrNodeNotFound}
	}

	s.nodes[i].Data.Label = label
	s.nodes[i].Data.Config = config
	s.dirty = true

	return nil
}

// Clear empties the graph locally. Confirming with the user is the caller's job.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.nodes) > 0 || len(s.edges) > 0 {
		s.dirty = true
	}

	s.nodes = []graph.Node{}
	s.edges = []graph.Edge{}
}

// Save sends the live graph as a partial update of the current workflow. The store's answer
// replaces the graph.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	w := s.workflow
	snapshot := graph.ToWorkflow(s.nodes, s.edges)
	s.mu.Unlock()

	if w == nil {
		return ErrNoWorkflow
	}

	if w.ID == "" {
		return ErrNotPersisted
	}

	if _, err := s.workflows.Update(ctx, w.ID, models.GraphPatch(snapshot)); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()

	s.logger.Info("Saved workflow", "id", w.ID, "components", len(snapshot.Components))

	return nil
}

// ValidateCurrent sends the live graph to the validator. When the request fails the result is
// a single-error verdict carrying the failure message, and the error is returned as well.
func (s *Session) ValidateCurrent(ctx context.Context) (models.ValidationResult, error) {
	s.mu.Lock()
	w := s.workflow
	snapshot := graph.ToWorkflow(s.nodes, s.edges)
	s.mu.Unlock()

	if w == nil {
		return models.ValidationResult{}, ErrNoWorkflow
	}

	return s.workflows.Validate(ctx, snapshot)
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.nodes, func(n graph.Node) bool { return n.ID == id })
}
