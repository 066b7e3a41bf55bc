package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_Suite(t *testing.T) {
	p := NewPersistence("file://" + t.TempDir())

	testutil.RunPersistenceSuite(context.Background(), t, p)
	assert.NoError(t, p.Close(context.Background()))
}

func TestNewPersistence_StripsScheme(t *testing.T) {
	dir := t.TempDir()
	p := NewPersistence("file://" + dir)

	assert.Equal(t, dir, p.root)
}

func TestHealthCheck_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	p := NewPersistence(root)

	require.NoError(t, p.HealthCheck(context.Background()))

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWorkflowRepository_RejectsPathIDs(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"../secret", "a/b", ".hidden", ""} {
		_, err := repo.GetByID(ctx, id)
		assert.True(t, persistence.IsWorkflowNotFound(err), id)

		err = repo.Delete(ctx, id)
		assert.True(t, persistence.IsWorkflowNotFound(err), id)
	}
}

func TestWorkflowRepository_FilesOnDisk(t *testing.T) {
	root := t.TempDir()
	repo := NewWorkflowRepository(root)

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, repo.Save(context.Background(), workflow))

	_, err := os.Stat(filepath.Join(root, "workflows", workflow.ID+".json"))
	assert.NoError(t, err)
}

func TestWorkflowRepository_ListEmptyRoot(t *testing.T) {
	repo := NewWorkflowRepository(filepath.Join(t.TempDir(), "missing"))

	list, err := repo.ListByOwner(context.Background(), "owner")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	repo := NewUserRepository(t.TempDir())
	ctx := context.Background()

	account := testutil.CreateTestAccount()
	account.Email = "Alice@Example.com"
	require.NoError(t, repo.Create(ctx, account))

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
}
