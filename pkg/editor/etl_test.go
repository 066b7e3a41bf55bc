package editor_test

import (
	"context"
	"testing"

	"github.com/dukex/flowcanvas/pkg/auth"
	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/schema"
	"github.com/dukex/flowcanvas/pkg/store"
	"github.com/dukex/flowcanvas/pkg/testutil/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	client   *client.Client
	identity *auth.Session
	store    *store.Store
	registry *schema.Registry
}

func newStack(t *testing.T) stack {
	t.Helper()

	server := apitest.NewServer(t)
	tokens := auth.NewMemoryTokenStore()
	logger := log.Discard()
	c := client.New(server.URL, client.WithTokenSource(tokens))

	s := stack{
		client:   c,
		identity: auth.NewSession(c, tokens, logger),
		store:    store.New(c, logger),
		registry: schema.NewRegistry(),
	}

	s.identity.OnIdentityChange(func(_ auth.Event, user *models.User) {
		s.store.IdentityChanged(user)
	})

	return s
}

func TestEditor_BuildETLWorkflow(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.identity.Register(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	created, err := s.store.Create(ctx, models.Workflow{Name: "Nightly ETL"})
	require.NoError(t, err)

	session := editor.New(s.store, s.registry, log.Discard())
	defer session.Close()

	input, err := session.AddNode(models.ComponentKindInput)
	require.NoError(t, err)
	process, err := session.AddNode(models.ComponentKindProcess)
	require.NoError(t, err)
	output, err := session.AddNode(models.ComponentKindOutput)
	require.NoError(t, err)

	_, err = session.Connect(input.ID, string(graph.HandleRight), process.ID, string(graph.HandleLeft))
	require.NoError(t, err)
	_, err = session.Connect(process.ID, string(graph.HandleRight), output.ID, string(graph.HandleLeft))
	require.NoError(t, err)

	require.NoError(t, session.Configure(input.ID, "Orders", schema.InputConfig{InputType: "json"}))
	require.NoError(t, session.Configure(process.ID, "Clean", schema.ProcessConfig{
		ProcessType: "transform",
		Logic:       "drop nulls",
		EnableRetry: true,
	}))
	require.NoError(t, session.Configure(output.ID, "Report", schema.OutputConfig{
		OutputFormat: "csv",
		FileName:     "report.csv",
	}))

	require.True(t, session.Dirty())
	require.NoError(t, session.Save(ctx))
	assert.False(t, session.Dirty())

	result, err := session.ValidateCurrent(ctx)
	require.NoError(t, err)
	assert.True(t, result.Valid, result.Errors)
	assert.Empty(t, result.Errors)

	stored, err := s.client.GetWorkflow(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Components, 3)
	require.Len(t, stored.Connections, 2)
	assert.Equal(t, "Clean", stored.Components[1].Data.Label)
	assert.Equal(t, "3", stored.Components[1].Data.Config["maxRetries"])

	// A fresh session sees the saved graph.
	reopened := editor.New(s.store, s.registry, log.Discard())
	defer reopened.Close()

	assert.Len(t, reopened.Nodes(), 3)
	assert.Len(t, reopened.Edges(), 2)
}

func TestEditor_InputToCSVOutput(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.identity.Register(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	created, err := s.store.Create(ctx, models.Workflow{Name: "Export orders"})
	require.NoError(t, err)

	session := editor.New(s.store, s.registry, log.Discard())
	defer session.Close()

	input, err := session.AddNode(models.ComponentKindInput)
	require.NoError(t, err)
	output, err := session.AddNode(models.ComponentKindOutput)
	require.NoError(t, err)

	edge, err := session.Connect(input.ID, string(graph.HandleRight), output.ID, string(graph.HandleLeft))
	require.NoError(t, err)

	require.NoError(t, session.Configure(input.ID, "Orders", schema.InputConfig{InputType: "text"}))
	require.NoError(t, session.Configure(output.ID, "Orders CSV", schema.OutputConfig{
		OutputFormat: "csv",
		FileName:     "out.csv",
	}))
	require.NoError(t, session.Save(ctx))

	require.True(t, s.store.Reload(ctx))

	var reloaded *models.Workflow
	for _, w := range s.store.Snapshot().Workflows {
		if w.ID == created.ID {
			reloaded = &w
		}
	}
	require.NotNil(t, reloaded)

	kinds := map[models.ComponentKind]int{}
	for _, c := range reloaded.Components {
		kinds[c.Data.Type]++
	}
	assert.Equal(t, map[models.ComponentKind]int{
		models.ComponentKindInput:  1,
		models.ComponentKindOutput: 1,
	}, kinds)

	require.Len(t, reloaded.Connections, 1)
	conn := reloaded.Connections[0]
	assert.Equal(t, edge.ID, conn.ID)
	assert.Equal(t, input.ID, conn.Source)
	assert.Equal(t, string(graph.HandleRight), conn.SourceHandle)
	assert.Equal(t, output.ID, conn.Target)
	assert.Equal(t, string(graph.HandleLeft), conn.TargetHandle)

	result, err := s.store.Validate(ctx, reloaded.Graph())
	require.NoError(t, err)
	assert.True(t, result.Valid, result.Errors)
}

func TestEditor_ServerRejectsFileOutputWithoutName(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.identity.Register(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	result, err := s.store.Validate(ctx, models.Graph{
		Components: []models.Component{
			{ID: "output-1", Data: models.ComponentData{
				Label:  "Report",
				Type:   models.ComponentKindOutput,
				Config: map[string]any{"outputFormat": "csv", "fileName": ""},
			}},
		},
		Connections: []models.Connection{},
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, `Component "Report": File name is required for file outputs`)
}

func TestEditor_LogoutClearsSelection(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.identity.Register(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.store.Create(ctx, models.Workflow{Name: "ETL"})
	require.NoError(t, err)

	session := editor.New(s.store, s.registry, log.Discard())
	defer session.Close()

	_, err = session.AddNode(models.ComponentKindInput)
	require.NoError(t, err)

	require.NoError(t, s.identity.Logout())

	assert.Nil(t, session.Workflow())
	assert.Empty(t, session.Nodes())
	assert.ErrorIs(t, session.Save(ctx), editor.ErrNoWorkflow)
}
