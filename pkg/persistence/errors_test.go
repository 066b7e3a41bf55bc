package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		workflowErr := persistence.NewWorkflowError("GetByID", "workflow-123", persistence.ErrWorkflowNotFound)
		userErr := persistence.NewUserError("Create", "a@b.co", persistence.ErrUserAlreadyExists)

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsUserAlreadyExists(userErr))
		assert.False(t, persistence.IsUserNotFound(userErr))

		assert.True(t, errors.Is(workflowErr, persistence.ErrWorkflowNotFound))
		assert.True(t, errors.Is(userErr, persistence.ErrUserAlreadyExists))
	})

	t.Run("workflow error contains context", func(t *testing.T) {
		err := persistence.NewWorkflowError("Delete", "workflow-123", persistence.ErrWorkflowNotFound)

		assert.Contains(t, err.Error(), "Delete")
		assert.Contains(t, err.Error(), "workflow-123")
		assert.Contains(t, err.Error(), "workflow not found")
	})

	t.Run("user error contains context", func(t *testing.T) {
		err := persistence.NewUserError("GetByEmail", "a@b.co", persistence.ErrUserNotFound)

		assert.Contains(t, err.Error(), "GetByEmail")
		assert.Contains(t, err.Error(), "a@b.co")
	})
}

func TestPrepareWorkflow(t *testing.T) {
	t.Parallel()

	w := &models.Workflow{Name: "ETL"}
	require.NoError(t, persistence.PrepareWorkflow(w))

	assert.NotEmpty(t, w.ID)
	require.NotNil(t, w.CreatedAt)
	require.NotNil(t, w.UpdatedAt)
	assert.NotNil(t, w.Components)
	assert.NotNil(t, w.Connections)
	assert.NotNil(t, w.Configurations)

	id, created := w.ID, *w.CreatedAt
	require.NoError(t, persistence.PrepareWorkflow(w))
	assert.Equal(t, id, w.ID)
	assert.Equal(t, created, *w.CreatedAt)
}

func TestPrepareAccount(t *testing.T) {
	t.Parallel()

	a := &models.Account{User: models.User{Email: "a@b.co"}}
	require.NoError(t, persistence.PrepareAccount(a))

	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, models.RoleUser, a.Role)
}
