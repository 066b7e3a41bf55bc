// Package store holds the authoritative in-memory cache of persisted workflows, the current
// selection and the status of pending operations.
package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukex/flowcanvas/pkg/models"
)

// WorkflowAPI is the part of the service the store talks to.
type WorkflowAPI interface {
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	CreateWorkflow(ctx context.Context, w models.Workflow) (*models.Workflow, error)
	UpdateWorkflow(ctx context.Context, id string, patch models.WorkflowPatch) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	ValidateWorkflow(ctx context.Context, graph models.Graph) (*models.ValidationResult, error)
}

// CurrentListener is notified with the new current workflow whenever the selection changes.
type CurrentListener func(current *models.Workflow)

// Store holds the signed-in user's workflows, the current selection and the request state.
type Store struct {
	api    WorkflowAPI
	logger *slog.Logger

	mu        sync.Mutex
	workflows []models.Workflow
	current   *models.Workflow
	loading   bool
	err       error

	identity string
	epoch    uint64
	markers  map[string]loadMarker

	listeners      map[int]CurrentListener
	nextListenerID int
}

// New creates an empty store backed by api.
func New(api WorkflowAPI, logger *slog.Logger) *Store {
	return &Store{
		api:       api,
		logger:    logger.With("module", "store"),
		workflows: []models.Workflow{},
		markers:   make(map[string]loadMarker),
		listeners: make(map[int]CurrentListener),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflows := make([]models.Workflow, len(s.workflows))
	copy(workflows, s.workflows)

	return State{
		Workflows: workflows,
		Current:   cloneWorkflow(s.current),
		Loading:   s.loading,
		Err:       s.err,
	}
}

func (s *Store) Current() *models.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneWorkflow(s.current)
}

// Identity returns the user id the store is scoped to, or "" when signed out.
func (s *Store) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.identity
}

// Subscribe registers fn to be called whenever the current workflow changes. The returned
// function removes the listener.
func (s *Store) Subscribe(fn CurrentListener) func() {
	s.mu.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// LoadAll fetches the collection for the current identity. It does nothing when no identity is
// set or when a load for the identity is in flight or has already succeeded, and reports whether
// a request was issued. Failures are recorded in the state, never returned.
func (s *Store) LoadAll(ctx context.Context) bool {
	s.mu.Lock()

	identity := s.identity
	if identity == "" {
		s.mu.Unlock()
		return false
	}

	if _, seen := s.markers[identity]; seen {
		s.mu.Unlock()
		s.logger.Debug("Skipping load, already attempted", "identity", identity)

		return false
	}

	s.markers[identity] = loadInFlight
	s.loading = true
	epoch := s.epoch
	s.mu.Unlock()

	s.logger.Debug("Loading workflows", "identity", identity)

	workflows, err := s.api.ListWorkflows(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		s.logger.Debug("Discarding load response after identity change", "identity", identity)
		return true
	}

	if err != nil {
		delete(s.markers, identity)
		s.err = err
		s.loading = false
		s.logger.Error("Failed to load workflows", "error", err)

		return true
	}

	if workflows == nil {
		workflows = []models.Workflow{}
	}

	s.markers[identity] = loadDone
	s.workflows = workflows
	s.loading = false
	s.logger.Debug("Loaded workflows", "count", len(workflows))

	return true
}

// Reload forgets a completed load for the current identity and loads again.
func (s *Store) Reload(ctx context.Context) bool {
	s.mu.Lock()
	if s.markers[s.identity] == loadDone {
		delete(s.markers, s.identity)
	}
	s.mu.Unlock()

	return s.LoadAll(ctx)
}

// Create persists a new workflow with an empty graph, prepends it to the collection and makes
// it current.
func (s *Store) Create(ctx context.Context, draft models.Workflow) (*models.Workflow, error) {
	if strings.TrimSpace(draft.Name) == "" {
		s.fail(ErrWorkflowNameRequired)
		return nil, ErrWorkflowNameRequired
	}

	draft.ID = ""
	draft.Components = []models.Component{}
	draft.Connections = []models.Connection{}

	if draft.Configurations == nil {
		draft.Configurations = map[string]any{}
	}

	epoch := s.begin()

	s.logger.Debug("Creating workflow", "name", draft.Name)

	created, err := s.api.CreateWorkflow(ctx, draft)

	s.mu.Lock()

	if epoch != s.epoch {
		s.mu.Unlock()
		return nil, ErrIdentityChanged
	}

	if err != nil {
		s.err = err
		s.loading = false
		s.mu.Unlock()
		s.logger.Error("Failed to create workflow", "error", err)

		return nil, err
	}

	s.workflows = append([]models.Workflow{*created}, s.workflows...)
	s.current = cloneWorkflow(created)
	s.loading = false
	s.err = nil
	notify := s.currentChanged()
	s.mu.Unlock()

	s.logger.Debug("Created workflow", "id", created.ID)
	notify()

	return cloneWorkflow(created), nil
}

// Update sends a partial patch. The response replaces the matching collection entry and, when
// it is the current workflow, the current pointer. The service merges; the store does not.
func (s *Store) Update(ctx context.Context, id string, patch models.WorkflowPatch) (*models.Workflow, error) {
	if id == "" {
		s.fail(ErrWorkflowIDRequired)
		return nil, ErrWorkflowIDRequired
	}

	epoch := s.begin()

	s.logger.Debug("Updating workflow", "id", id)

	updated, err := s.api.UpdateWorkflow(ctx, id, patch)

	s.mu.Lock()

	if epoch != s.epoch {
		s.mu.Unlock()
		return nil, ErrIdentityChanged
	}

	if err != nil {
		s.err = err
		s.loading = false
		s.mu.Unlock()
		s.logger.Error("Failed to update workflow", "id", id, "error", err)

		return nil, err
	}

	for i := range s.workflows {
		if s.workflows[i].ID == updated.ID {
			s.workflows[i] = *updated
		}
	}

	notify := func() {}

	if s.current != nil && s.current.ID == updated.ID {
		s.current = cloneWorkflow(updated)
		notify = s.currentChanged()
	}

	s.loading = false
	s.mu.Unlock()

	s.logger.Debug("Updated workflow", "id", updated.ID)
	notify()

	return cloneWorkflow(updated), nil
}

// Delete removes the workflow. Confirming with the user is the caller's job.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		s.fail(ErrWorkflowIDRequired)
		return ErrWorkflowIDRequired
	}

	epoch := s.begin()

	s.logger.Debug("Deleting workflow", "id", id)

	err := s.api.DeleteWorkflow(ctx, id)

	s.mu.Lock()

	if epoch != s.epoch {
		s.mu.Unlock()
		return ErrIdentityChanged
	}

	if err != nil {
		s.err = err
		s.loading = false
		s.mu.Unlock()
		s.logger.Error("Failed to delete workflow", "id", id, "error", err)

		return err
	}

	kept := s.workflows[:0:0]

	for _, w := range s.workflows {
		if w.ID != id {
			kept = append(kept, w)
		}
	}

	s.workflows = kept

	notify := func() {}

	if s.current != nil && s.current.ID == id {
		s.current = nil
		notify = s.currentChanged()
	}

	s.loading = false
	s.mu.Unlock()

	notify()

	return nil
}

// SetCurrent changes the selection without fetching.
func (s *Store) SetCurrent(w *models.Workflow) {
	s.mu.Lock()
	s.current = cloneWorkflow(w)
	notify := s.currentChanged()
	s.mu.Unlock()

	notify()
}

// Validate asks the service to validate graph. It never changes the store. When the request
// itself fails, the returned result is a synthesized single-error verdict.
func (s *Store) Validate(ctx context.Context, graph models.Graph) (models.ValidationResult, error) {
	result, err := s.api.ValidateWorkflow(ctx, graph)
	if err != nil {
		s.logger.Debug("Validation request failed", "error", err)
		return models.FailedValidation(err.Error()), err
	}

	if result.Errors == nil {
		result.Errors = []string{}
	}

	return *result, nil
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// ClearAll resets the store to its empty idle state and forgets every load marker. Responses
// to requests issued before the call are discarded.
func (s *Store) ClearAll() {
	s.mu.Lock()
	notify := s.clearLocked()
	s.mu.Unlock()

	s.logger.Debug("Cleared all workflow data")
	notify()
}

// IdentityChanged scopes the store to user (nil when signed out), dropping everything held for
// the previous identity.
func (s *Store) IdentityChanged(user *models.User) {
	s.mu.Lock()
	notify := s.clearLocked()

	s.identity = ""
	if user != nil {
		s.identity = user.ID
	}
	s.mu.Unlock()

	s.logger.Debug("Identity changed, cleared workflow data")
	notify()
}

func (s *Store) clearLocked() func() {
	hadCurrent := s.current != nil

	s.workflows = []models.Workflow{}
	s.current = nil
	s.loading = false
	s.err = nil
	s.markers = make(map[string]loadMarker)
	s.epoch++

	if !hadCurrent {
		return func() {}
	}

	return s.currentChanged()
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = true

	return s.epoch
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.loading = false
	s.mu.Unlock()
}

// currentChanged captures the listeners and the new selection under the lock and returns a
// function that delivers them once the lock is released.
func (s *Store) currentChanged() func() {
	listeners := make([]CurrentListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}

	current := s.current

	return func() {
		for _, l := range listeners {
			l(cloneWorkflow(current))
		}
	}
}
