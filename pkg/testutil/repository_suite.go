package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPersistenceSuite exercises the behavior every persistence backend must share.
func RunPersistenceSuite(ctx context.Context, t *testing.T, p persistence.Persistence) {
	t.Helper()

	t.Run("health check", func(t *testing.T) {
		assert.NoError(t, p.HealthCheck(ctx))
	})

	t.Run("save assigns id and timestamps", func(t *testing.T) {
		repo := p.WorkflowRepository()
		workflow := CreateTestWorkflow()

		require.NoError(t, repo.Save(ctx, workflow))
		assert.NotEmpty(t, workflow.ID)
		require.NotNil(t, workflow.CreatedAt)
		require.NotNil(t, workflow.UpdatedAt)

		got, err := repo.GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, workflow.Name, got.Name)
		assert.Equal(t, workflow.Owner, got.Owner)
		assert.Equal(t, workflow.Components, got.Components)
		assert.Equal(t, workflow.Connections, got.Connections)
		assert.WithinDuration(t, *workflow.CreatedAt, *got.CreatedAt, time.Millisecond)
	})

	t.Run("save replaces an existing workflow", func(t *testing.T) {
		repo := p.WorkflowRepository()
		workflow := CreateTestWorkflow()
		require.NoError(t, repo.Save(ctx, workflow))

		created := *workflow.CreatedAt
		workflow.Name = "Renamed"
		workflow.Components = []models.Component{}
		workflow.Connections = []models.Connection{}
		require.NoError(t, repo.Save(ctx, workflow))

		got, err := repo.GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Empty(t, got.Components)
		assert.WithinDuration(t, created, *got.CreatedAt, time.Millisecond)
	})

	t.Run("list is scoped to the owner and newest first", func(t *testing.T) {
		repo := p.WorkflowRepository()
		owner := CreateTestWorkflow().Owner

		first := CreateTestWorkflow(WithOwner(owner), WithName("first"))
		require.NoError(t, repo.Save(ctx, first))

		time.Sleep(5 * time.Millisecond)

		second := CreateTestWorkflow(WithOwner(owner), WithName("second"))
		require.NoError(t, repo.Save(ctx, second))

		other := CreateTestWorkflow()
		require.NoError(t, repo.Save(ctx, other))

		list, err := repo.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "second", list[0].Name)
		assert.Equal(t, "first", list[1].Name)

		empty, err := repo.ListByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("delete", func(t *testing.T) {
		repo := p.WorkflowRepository()
		workflow := CreateTestWorkflow()
		require.NoError(t, repo.Save(ctx, workflow))

		require.NoError(t, repo.Delete(ctx, workflow.ID))

		_, err := repo.GetByID(ctx, workflow.ID)
		assert.True(t, persistence.IsWorkflowNotFound(err))

		list, err := repo.ListByOwner(ctx, workflow.Owner)
		require.NoError(t, err)
		assert.Empty(t, list)

		err = repo.Delete(ctx, workflow.ID)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("missing workflow", func(t *testing.T) {
		_, err := p.WorkflowRepository().GetByID(ctx, "0198f3a4-0000-7000-8000-000000000000")
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("accounts", func(t *testing.T) {
		users := p.UserRepository()
		account := CreateTestAccount()

		require.NoError(t, users.Create(ctx, account))
		assert.NotEmpty(t, account.ID)

		byEmail, err := users.GetByEmail(ctx, account.Email)
		require.NoError(t, err)
		assert.Equal(t, account.ID, byEmail.ID)
		assert.Equal(t, account.PasswordHash, byEmail.PasswordHash)
		assert.Equal(t, models.RoleUser, byEmail.Role)

		byID, err := users.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, account.Email, byID.Email)

		duplicate := CreateTestAccount()
		duplicate.Email = account.Email
		err = users.Create(ctx, duplicate)
		assert.True(t, persistence.IsUserAlreadyExists(err))

		_, err = users.GetByEmail(ctx, "missing@example.com")
		assert.True(t, persistence.IsUserNotFound(err))

		_, err = users.GetByID(ctx, "0198f3a4-0000-7000-8000-000000000001")
		assert.True(t, persistence.IsUserNotFound(err))
	})
}
