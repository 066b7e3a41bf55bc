package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Workflow), args.Error(1)
}

func (m *mockAPI) CreateWorkflow(ctx context.Context, w models.Workflow) (*models.Workflow, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *mockAPI) UpdateWorkflow(ctx context.Context, id string, patch models.WorkflowPatch) (*models.Workflow, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *mockAPI) DeleteWorkflow(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) ValidateWorkflow(ctx context.Context, graph models.Graph) (*models.ValidationResult, error) {
	args := m.Called(ctx, graph)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ValidationResult), args.Error(1)
}

func setupStore(t *testing.T) (*Store, *mockAPI) {
	t.Helper()

	api := &mockAPI{}
	t.Cleanup(func() { api.AssertExpectations(t) })

	return New(api, log.Discard()), api
}

func signedIn(t *testing.T, id string) (*Store, *mockAPI) {
	t.Helper()

	s, api := setupStore(t)
	s.IdentityChanged(&models.User{ID: id, Email: id + "@example.com"})

	return s, api
}

func TestStore_InitialState(t *testing.T) {
	s, _ := setupStore(t)

	state := s.Snapshot()
	assert.Empty(t, state.Workflows)
	assert.Nil(t, state.Current)
	assert.Equal(t, StatusIdle, state.Status())
	assert.Empty(t, state.ErrMessage())
}

func TestStore_LoadAll_WithoutIdentity(t *testing.T) {
	s, _ := setupStore(t)

	assert.False(t, s.LoadAll(context.Background()))
}

func TestStore_LoadAll_Success(t *testing.T) {
	s, api := signedIn(t, "u1")

	api.On("ListWorkflows", mock.Anything).
		Return([]models.Workflow{{ID: "wf-1", Name: "ETL"}, {ID: "wf-2", Name: "Report"}}, nil).Once()

	assert.True(t, s.LoadAll(context.Background()))

	state := s.Snapshot()
	assert.Len(t, state.Workflows, 2)
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)

	// already loaded for this identity
	assert.False(t, s.LoadAll(context.Background()))
}

func TestStore_LoadAll_FailureKeepsDataAndAllowsRetry(t *testing.T) {
	s, api := signedIn(t, "u1")

	api.On("ListWorkflows", mock.Anything).Return([]models.Workflow{{ID: "wf-1", Name: "ETL"}}, nil).Once()
	require.True(t, s.LoadAll(context.Background()))

	api.On("ListWorkflows", mock.Anything).Return(nil, errors.New("Failed to fetch")).Once()
	require.True(t, s.Reload(context.Background()))

	state := s.Snapshot()
	assert.Len(t, state.Workflows, 1)
	assert.Equal(t, StatusError, state.Status())
	assert.Equal(t, "Failed to fetch", state.ErrMessage())
	assert.False(t, state.Loading)

	// failed attempt was evicted
	api.On("ListWorkflows", mock.Anything).Return([]models.Workflow{}, nil).Once()
	assert.True(t, s.LoadAll(context.Background()))
	assert.Empty(t, s.Snapshot().Workflows)
}

func TestStore_LoadAll_NoOverlappingLoads(t *testing.T) {
	s, api := signedIn(t, "u1")

	started := make(chan struct{})
	release := make(chan struct{})

	api.On("ListWorkflows", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return([]models.Workflow{{ID: "wf-1", Name: "ETL"}}, nil).Once()

	done := make(chan bool)
	go func() { done <- s.LoadAll(context.Background()) }()

	<-started
	assert.True(t, s.Snapshot().Loading)
	assert.False(t, s.LoadAll(context.Background()))

	close(release)
	assert.True(t, <-done)
	assert.Len(t, s.Snapshot().Workflows, 1)
}

func TestStore_Create(t *testing.T) {
	s, api := signedIn(t, "u1")

	api.On("ListWorkflows", mock.Anything).Return([]models.Workflow{{ID: "wf-1", Name: "Old"}}, nil).Once()
	s.LoadAll(context.Background())

	var notified []*models.Workflow
	s.Subscribe(func(w *models.Workflow) { notified = append(notified, w) })

	api.On("CreateWorkflow", mock.Anything, mock.MatchedBy(func(w models.Workflow) bool {
		return w.ID == "" && w.Name == "ETL" && w.Components != nil && len(w.Components) == 0 &&
			w.Connections != nil && w.Configurations != nil
	})).Return(&models.Workflow{ID: "wf-2", Name: "ETL"}, nil).Once()

	created, err := s.Create(context.Background(), models.Workflow{Name: "ETL", Components: []models.Component{{ID: "stale"}}})
	require.NoError(t, err)
	assert.Equal(t, "wf-2", created.ID)

	state := s.Snapshot()
	require.Len(t, state.Workflows, 2)
	assert.Equal(t, "wf-2", state.Workflows[0].ID)
	require.NotNil(t, state.Current)
	assert.Equal(t, "wf-2", state.Current.ID)
	assert.Nil(t, state.Err)

	require.Len(t, notified, 1)
	assert.Equal(t, "wf-2", notified[0].ID)
}

func TestStore_Create_RequiresName(t *testing.T) {
	s, _ := setupStore(t)

	_, err := s.Create(context.Background(), models.Workflow{Name: "   "})
	assert.ErrorIs(t, err, ErrWorkflowNameRequired)
	assert.ErrorIs(t, s.Snapshot().Err, ErrWorkflowNameRequired)
}

func TestStore_Create_FailureSetsErrorAndReturnsIt(t *testing.T) {
	s, api := setupStore(t)

	boom := errors.New("Workflow name already exists")
	api.On("CreateWorkflow", mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := s.Create(context.Background(), models.Workflow{Name: "ETL"})
	assert.ErrorIs(t, err, boom)

	state := s.Snapshot()
	assert.Equal(t, boom, state.Err)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Current)
	assert.Empty(t, state.Workflows)
}

func TestStore_Update_ReplacesEntryAndCurrent(t *testing.T) {
	s, api := signedIn(t, "u1")

	api.On("ListWorkflows", mock.Anything).
		Return([]models.Workflow{{ID: "wf-1", Name: "ETL"}, {ID: "wf-2", Name: "Other"}}, nil).Once()
	s.LoadAll(context.Background())
	s.SetCurrent(&models.Workflow{ID: "wf-1", Name: "ETL"})

	var notified int
	s.Subscribe(func(*models.Workflow) { notified++ })

	patch := models.GraphPatch(models.Graph{Components: []models.Component{{ID: "input-1"}}})
	api.On("UpdateWorkflow", mock.Anything, "wf-1", patch).
		Return(&models.Workflow{ID: "wf-1", Name: "ETL", Components: []models.Component{{ID: "input-1"}}}, nil).Once()

	_, err := s.Update(context.Background(), "wf-1", patch)
	require.NoError(t, err)

	state := s.Snapshot()
	assert.Len(t, state.Workflows[0].Components, 1)
	assert.Empty(t, state.Workflows[1].Components)
	assert.Len(t, state.Current.Components, 1)
	assert.Equal(t, 1, notified)
}

func TestStore_Update_NonCurrentLeavesSelection(t *testing.T) {
	s, api := setupStore(t)
	s.SetCurrent(&models.Workflow{ID: "wf-1", Name: "ETL"})

	name := "Renamed"
	api.On("UpdateWorkflow", mock.Anything, "wf-2", models.WorkflowPatch{Name: &name}).
		Return(&models.Workflow{ID: "wf-2", Name: "Renamed"}, nil).Once()

	_, err := s.Update(context.Background(), "wf-2", models.WorkflowPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "wf-1", s.Current().ID)
}

func TestStore_Update_Failure(t *testing.T) {
	s, api := setupStore(t)
	s.SetCurrent(&models.Workflow{ID: "wf-1", Name: "ETL"})

	api.On("UpdateWorkflow", mock.Anything, "wf-1", mock.Anything).Return(nil, errors.New("Workflow not found")).Once()

	_, err := s.Update(context.Background(), "wf-1", models.WorkflowPatch{})
	require.Error(t, err)

	state := s.Snapshot()
	assert.Equal(t, "Workflow not found", state.ErrMessage())
	assert.Equal(t, "ETL", state.Current.Name)
	assert.False(t, state.Loading)
}

func TestStore_Update_RaceLastResponseWins(t *testing.T) {
	s, api := setupStore(t)
	s.SetCurrent(&models.Workflow{ID: "wf-1", Name: "ETL"})

	first, second := "first", "second"
	firstStarted, secondStarted := make(chan struct{}), make(chan struct{})
	releaseFirst, releaseSecond := make(chan struct{}), make(chan struct{})

	api.On("UpdateWorkflow", mock.Anything, "wf-1", models.WorkflowPatch{Name: &first}).Run(func(mock.Arguments) {
		close(firstStarted)
		<-releaseFirst
	}).Return(&models.Workflow{ID: "wf-1", Name: first}, nil).Once()

	api.On("UpdateWorkflow", mock.Anything, "wf-1", models.WorkflowPatch{Name: &second}).Run(func(mock.Arguments) {
		close(secondStarted)
		<-releaseSecond
	}).Return(&models.Workflow{ID: "wf-1", Name: second}, nil).Once()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Update(context.Background(), "wf-1", models.WorkflowPatch{Name: &first})
	}()
	<-firstStarted

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Update(context.Background(), "wf-1", models.WorkflowPatch{Name: &second})
	}()
	<-secondStarted

	// the second request resolves first
	close(releaseSecond)
	require.Eventually(t, func() bool { return s.Current().Name == second }, timeout, tick)

	close(releaseFirst)
	wg.Wait()

	assert.Equal(t, first, s.Current().Name)
}

func TestStore_Delete(t *testing.T) {
	s, api := signedIn(t, "u1")

	api.On("ListWorkflows", mock.Anything).
		Return([]models.Workflow{{ID: "wf-1", Name: "ETL"}, {ID: "wf-2", Name: "Other"}}, nil).Once()
	s.LoadAll(context.Background())
	s.SetCurrent(&models.Workflow{ID: "wf-1", Name: "ETL"})

	var last *models.Workflow = &models.Workflow{}
	s.Subscribe(func(w *models.Workflow) { last = w })

	api.On("DeleteWorkflow", mock.Anything, "wf-1").Return(nil).Once()

	require.NoError(t, s.Delete(context.Background(), "wf-1"))

	state := s.Snapshot()
	require.Len(t, state.Workflows, 1)
	assert.Equal(t, "wf-2", state.Workflows[0].ID)
	assert.Nil(t, state.Current)
	assert.Nil(t, last)
}

func TestStore_Delete_Failure(t *testing.T) {
	s, api := setupStore(t)

	api.On("DeleteWorkflow", mock.Anything, "wf-1").Return(errors.New("forbidden")).Once()

	err := s.Delete(context.Background(), "wf-1")
	require.Error(t, err)
	assert.Equal(t, "forbidden", s.Snapshot().ErrMessage())

	s.ClearError()
	assert.NoError(t, s.Snapshot().Err)
}

func TestStore_Validate_DoesNotMutate(t *testing.T) {
	s, api := setupStore(t)
	s.SetCurrent(&models.Workflow{ID: "wf-1", Name: "ETL"})

	graph := models.Graph{Components: []models.Component{}, Connections: []models.Connection{}}
	api.On("ValidateWorkflow", mock.Anything, graph).
		Return(&models.ValidationResult{Valid: false, Errors: []string{"Workflow must have at least one component"}}, nil).Once()

	before := s.Snapshot()

	result, err := s.Validate(context.Background(), graph)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, before, s.Snapshot())
}

func TestStore_Validate_RequestFailure(t *testing.T) {
	s, api := setupStore(t)

	api.On("ValidateWorkflow", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	result, err := s.Validate(context.Background(), models.Graph{})
	require.Error(t, err)
	assert.Equal(t, models.FailedValidation("connection refused"), result)
	assert.NoError(t, s.Snapshot().Err)
}

func TestStore_IdentityChange_NoLeakage(t *testing.T) {
	s, api := signedIn(t, "alice")

	aliceWorkflows := make([]models.Workflow, 25)
	for i := range aliceWorkflows {
		aliceWorkflows[i] = models.Workflow{ID: string(rune('a' + i)), Name: "alice"}
	}

	api.On("ListWorkflows", mock.Anything).Return(aliceWorkflows, nil).Once()
	require.True(t, s.LoadAll(context.Background()))
	s.SetCurrent(&aliceWorkflows[0])

	s.IdentityChanged(&models.User{ID: "bob"})

	state := s.Snapshot()
	assert.Empty(t, state.Workflows)
	assert.Nil(t, state.Current)
	assert.NoError(t, state.Err)
	assert.False(t, state.Loading)
	assert.Equal(t, "bob", s.Identity())

	// switching back must load again
	api.On("ListWorkflows", mock.Anything).Return([]models.Workflow{}, nil).Once()
	s.IdentityChanged(&models.User{ID: "alice"})
	assert.True(t, s.LoadAll(context.Background()))
}

func TestStore_IdentityChange_DiscardsInFlightResponses(t *testing.T) {
	s, api := signedIn(t, "alice")

	started := make(chan struct{})
	release := make(chan struct{})

	api.On("ListWorkflows", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return([]models.Workflow{{ID: "wf-alice", Name: "secret"}}, nil).Once()

	done := make(chan struct{})
	go func() {
		s.LoadAll(context.Background())
		close(done)
	}()

	<-started
	s.IdentityChanged(&models.User{ID: "bob"})
	close(release)
	<-done

	assert.Empty(t, s.Snapshot().Workflows)
}

func TestStore_IdentityChange_DiscardsCreate(t *testing.T) {
	s, api := signedIn(t, "alice")

	started := make(chan struct{})
	release := make(chan struct{})

	api.On("CreateWorkflow", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&models.Workflow{ID: "wf-alice", Name: "ETL"}, nil).Once()

	errs := make(chan error)
	go func() {
		_, err := s.Create(context.Background(), models.Workflow{Name: "ETL"})
		errs <- err
	}()

	<-started
	s.IdentityChanged(nil)
	close(release)

	assert.ErrorIs(t, <-errs, ErrIdentityChanged)
	assert.Empty(t, s.Snapshot().Workflows)
	assert.Nil(t, s.Current())
	assert.Empty(t, s.Identity())
}

func TestStore_ClearAll(t *testing.T) {
	s, api := signedIn(t, "u1")

	api.On("ListWorkflows", mock.Anything).Return([]models.Workflow{{ID: "wf-1", Name: "ETL"}}, nil).Twice()
	require.True(t, s.LoadAll(context.Background()))
	s.SetCurrent(&models.Workflow{ID: "wf-1"})

	var cleared bool
	unsubscribe := s.Subscribe(func(w *models.Workflow) { cleared = w == nil })

	s.ClearAll()
	assert.True(t, cleared)
	assert.Empty(t, s.Snapshot().Workflows)

	unsubscribe()
	cleared = false
	s.SetCurrent(nil)
	assert.False(t, cleared)

	// markers were forgotten
	assert.True(t, s.LoadAll(context.Background()))
}

func TestStore_SubscribersGetCopies(t *testing.T) {
	s, _ := setupStore(t)

	var got *models.Workflow
	s.Subscribe(func(w *models.Workflow) { got = w })

	s.SetCurrent(&models.Workflow{ID: "wf-1", Name: "ETL"})
	require.NotNil(t, got)

	got.Name = "mutated"
	assert.Equal(t, "ETL", s.Current().Name)
}
