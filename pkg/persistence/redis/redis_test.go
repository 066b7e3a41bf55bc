package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/persistence"
	flowredis "github.com/dukex/flowcanvas/pkg/persistence/redis"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (*flowredis.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis tests in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	p, err := flowredis.NewPersistence(ctx, log.Discard(), fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, p.Close(context.Background()))
	})

	return p, ctx
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := flowredis.NewPersistence(context.Background(), log.Discard(), "http://not-redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

func TestPersistence_Suite(t *testing.T) {
	p, ctx := setupRedis(t)

	testutil.RunPersistenceSuite(ctx, t, p)
}

func TestWorkflowRepository_OwnerChangeMovesIndex(t *testing.T) {
	p, ctx := setupRedis(t)
	repo := p.WorkflowRepository()

	workflow := testutil.CreateTestWorkflow(testutil.WithOwner("owner-a"))
	require.NoError(t, repo.Save(ctx, workflow))

	workflow.Owner = "owner-b"
	require.NoError(t, repo.Save(ctx, workflow))

	listA, err := repo.ListByOwner(ctx, "owner-a")
	require.NoError(t, err)
	assert.Empty(t, listA)

	listB, err := repo.ListByOwner(ctx, "owner-b")
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.Equal(t, workflow.ID, listB[0].ID)
}

func TestUserRepository_EmailLookupIgnoresCase(t *testing.T) {
	p, ctx := setupRedis(t)
	repo := p.UserRepository()

	account := testutil.CreateTestAccount()
	account.Email = "Ada@Example.com"
	require.NoError(t, repo.Create(ctx, account))

	found, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	duplicate := testutil.CreateTestAccount()
	duplicate.Email = "ADA@example.com"

	err = repo.Create(ctx, duplicate)
	assert.True(t, persistence.IsUserAlreadyExists(err))
}
