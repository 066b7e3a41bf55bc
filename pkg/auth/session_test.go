package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *mockAPI) Register(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *mockAPI) Verify(ctx context.Context) (*models.VerifyResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.VerifyResponse), args.Error(1)
}

// workflowAPI serves a fixed collection per signed-in user.
type workflowAPI struct {
	tokens      TokenStore
	collections map[string][]models.Workflow
}

func (w *workflowAPI) ListWorkflows(context.Context) ([]models.Workflow, error) {
	return w.collections[w.tokens.Token()], nil
}

func (w *workflowAPI) CreateWorkflow(context.Context, models.Workflow) (*models.Workflow, error) {
	return nil, errors.New("not implemented")
}

func (w *workflowAPI) UpdateWorkflow(context.Context, string, models.WorkflowPatch) (*models.Workflow, error) {
	return nil, errors.New("not implemented")
}

func (w *workflowAPI) DeleteWorkflow(context.Context, string) error {
	return errors.New("not implemented")
}

func (w *workflowAPI) ValidateWorkflow(context.Context, models.Graph) (*models.ValidationResult, error) {
	return nil, errors.New("not implemented")
}

func authResponse(id string) *models.AuthResponse {
	return &models.AuthResponse{
		AccessToken: "token-" + id,
		User:        models.User{ID: id, Email: id + "@example.com", Role: models.RoleUser},
	}
}

func TestSession_Login(t *testing.T) {
	api := &mockAPI{}
	tokens := NewMemoryTokenStore()
	s := NewSession(api, tokens, log.Discard())

	var events []Event
	s.OnIdentityChange(func(e Event, u *models.User) {
		events = append(events, e)
		assert.Equal(t, "alice", u.ID)
	})

	api.On("Login", mock.Anything, "alice@example.com", "secret1").Return(authResponse("alice"), nil).Once()

	user, err := s.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.ID)
	assert.Equal(t, "token-alice", tokens.Token())
	assert.Equal(t, []Event{EventLogin}, events)
	assert.Equal(t, "alice", s.User().ID)
	api.AssertExpectations(t)
}

func TestSession_Login_Failure(t *testing.T) {
	api := &mockAPI{}
	tokens := NewMemoryTokenStore()
	s := NewSession(api, tokens, log.Discard())

	called := false
	s.OnIdentityChange(func(Event, *models.User) { called = true })

	api.On("Login", mock.Anything, "alice@example.com", "wrong").Return(nil, errors.New("Invalid credentials")).Once()

	_, err := s.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", s.Err().Error())
	assert.False(t, called)
	assert.Empty(t, tokens.Token())
	assert.Nil(t, s.User())

	s.ClearError()
	assert.NoError(t, s.Err())
}

func TestSession_Login_MissingCredentials(t *testing.T) {
	s := NewSession(&mockAPI{}, NewMemoryTokenStore(), log.Discard())

	_, err := s.Login(context.Background(), "", "secret1")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSession_Register_ValidatesLocally(t *testing.T) {
	s := NewSession(&mockAPI{}, NewMemoryTokenStore(), log.Discard())

	_, err := s.Register(context.Background(), "alice@example.com", "123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Register(context.Background(), "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSession_Register(t *testing.T) {
	api := &mockAPI{}
	s := NewSession(api, NewMemoryTokenStore(), log.Discard())

	var got Event
	s.OnIdentityChange(func(e Event, _ *models.User) { got = e })

	api.On("Register", mock.Anything, "bob@example.com", "secret1").Return(authResponse("bob"), nil).Once()

	_, err := s.Register(context.Background(), "bob@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, EventRegister, got)
}

func TestCheckPasswordConfirmation(t *testing.T) {
	assert.NoError(t, CheckPasswordConfirmation("secret1", "secret1"))
	assert.ErrorIs(t, CheckPasswordConfirmation("secret1", "secret2"), ErrPasswordMismatch)
}

func TestSession_Restore(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		s := NewSession(&mockAPI{}, NewMemoryTokenStore(), log.Discard())

		user, err := s.Restore(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("valid token", func(t *testing.T) {
		api := &mockAPI{}
		tokens := NewMemoryTokenStore()
		require.NoError(t, tokens.Save("token-alice"))

		s := NewSession(api, tokens, log.Discard())

		var got Event
		s.OnIdentityChange(func(e Event, _ *models.User) { got = e })

		api.On("Verify", mock.Anything).
			Return(&models.VerifyResponse{Valid: true, User: &models.User{ID: "alice"}}, nil).Once()

		user, err := s.Restore(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "alice", user.ID)
		assert.Equal(t, EventRestore, got)
	})

	t.Run("invalid token is removed", func(t *testing.T) {
		api := &mockAPI{}
		tokens := NewMemoryTokenStore()
		require.NoError(t, tokens.Save("stale"))

		s := NewSession(api, tokens, log.Discard())

		api.On("Verify", mock.Anything).Return(&models.VerifyResponse{Valid: false}, nil).Once()

		_, err := s.Restore(context.Background())
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Empty(t, tokens.Token())
		assert.Nil(t, s.User())
	})

	t.Run("verify request fails", func(t *testing.T) {
		api := &mockAPI{}
		tokens := NewMemoryTokenStore()
		require.NoError(t, tokens.Save("stale"))

		s := NewSession(api, tokens, log.Discard())

		api.On("Verify", mock.Anything).Return(nil, errors.New("Unauthorized")).Once()

		_, err := s.Restore(context.Background())
		require.Error(t, err)
		assert.Empty(t, tokens.Token())
	})
}

func TestSession_Logout(t *testing.T) {
	api := &mockAPI{}
	tokens := NewMemoryTokenStore()
	s := NewSession(api, tokens, log.Discard())

	api.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(authResponse("alice"), nil).Once()
	_, err := s.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	var gotEvent Event
	gotUser := &models.User{}
	s.OnIdentityChange(func(e Event, u *models.User) {
		gotEvent = e
		gotUser = u
	})

	require.NoError(t, s.Logout())
	assert.Equal(t, EventLogout, gotEvent)
	assert.Nil(t, gotUser)
	assert.Nil(t, s.User())
	assert.Empty(t, tokens.Token())
}

func TestSession_IdentitySwitchLeavesStoreEmpty(t *testing.T) {
	api := &mockAPI{}
	tokens := NewMemoryTokenStore()
	workflows := &workflowAPI{
		tokens: tokens,
		collections: map[string][]models.Workflow{
			"token-alice": {{ID: "wf-1", Name: "ETL"}, {ID: "wf-2", Name: "Report"}, {ID: "wf-3", Name: "Sync"}},
		},
	}

	s := NewSession(api, tokens, log.Discard())
	st := store.New(workflows, log.Discard())
	s.OnIdentityChange(func(_ Event, u *models.User) { st.IdentityChanged(u) })

	api.On("Login", mock.Anything, "alice@example.com", "secret1").Return(authResponse("alice"), nil).Once()
	api.On("Login", mock.Anything, "bob@example.com", "secret1").Return(authResponse("bob"), nil).Once()

	_, err := s.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	require.True(t, st.LoadAll(context.Background()))
	require.Len(t, st.Snapshot().Workflows, 3)
	st.SetCurrent(&models.Workflow{ID: "wf-1", Name: "ETL"})

	_, err = s.Login(context.Background(), "bob@example.com", "secret1")
	require.NoError(t, err)

	state := st.Snapshot()
	assert.Empty(t, state.Workflows)
	assert.Nil(t, state.Current)
	assert.NoError(t, state.Err)
	assert.Equal(t, "bob", st.Identity())

	require.True(t, st.LoadAll(context.Background()))
	assert.Empty(t, st.Snapshot().Workflows)
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	tokens := NewFileTokenStore(path)

	assert.Empty(t, tokens.Token())
	assert.NoError(t, tokens.Clear())

	require.NoError(t, tokens.Save("abc"))
	assert.Equal(t, "abc", tokens.Token())
	assert.Equal(t, path, tokens.Path())

	require.NoError(t, tokens.Clear())
	assert.Empty(t, tokens.Token())
}
