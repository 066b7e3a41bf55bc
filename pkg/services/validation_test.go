package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func TestValidator_ValidWorkflow(t *testing.T) {
	workflow := testutil.CreateTestWorkflow()

	result := newValidator().Validate(context.Background(), workflow.Graph())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NotNil(t, result.Errors)
}

func TestValidator_EmptyGraph(t *testing.T) {
	result := newValidator().Validate(context.Background(), models.Graph{})

	assert.False(t, result.Valid)
	assert.Equal(t, []string{"Workflow must contain at least one component"}, result.Errors)
}

func TestValidator_CSVOutputWithoutFileName(t *testing.T) {
	workflow := testutil.CreateTestWorkflow()
	workflow.Components[1].Data.Label = "Save CSV"
	workflow.Components[1].Data.Config = map[string]any{"outputFormat": "csv", "fileName": ""}

	result := newValidator().Validate(context.Background(), workflow.Graph())

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, `Component "Save CSV": File name is required for file outputs`)
}

func TestValidator_ComponentChecks(t *testing.T) {
	unknown := testutil.CreateTestComponent("webhook")
	unknown.Data.Label = "Hook"

	unlabeled := testutil.CreateTestComponent(models.ComponentKindProcess)
	unlabeled.ID = "process-1"
	unlabeled.Data.Label = ""

	badEnum := testutil.CreateTestComponent(models.ComponentKindInput)
	badEnum.Data.Label = "Source"
	badEnum.Data.Config = map[string]any{"inputType": "telepathy"}

	graph := models.Graph{Components: []models.Component{unknown, unlabeled, badEnum}}

	result := newValidator().Validate(context.Background(), graph)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, `Component "Hook" has unknown type "webhook"`)
	assert.Contains(t, result.Errors, `Component "process-1": Node label is required`)

	var enumProblem bool

	for _, e := range result.HardErrors() {
		if strings.HasPrefix(e, `Component "Source": inputType`) {
			enumProblem = true
		}
	}

	assert.True(t, enumProblem, "enum violation reported: %v", result.Errors)
}

func TestValidator_DuplicateComponentIDs(t *testing.T) {
	first := testutil.CreateTestComponent(models.ComponentKindInput)
	second := testutil.CreateTestComponent(models.ComponentKindInput)
	second.ID = first.ID

	result := newValidator().Validate(context.Background(), models.Graph{Components: []models.Component{first, second}})

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, `Duplicate component id "`+first.ID+`"`)
}

func TestValidator_ConnectionChecks(t *testing.T) {
	workflow := testutil.CreateTestWorkflow()
	source := workflow.Components[0].ID

	workflow.Connections = append(workflow.Connections,
		models.Connection{ID: "dangling", Source: source, Target: "ghost", SourceHandle: "right", TargetHandle: "left"},
		models.Connection{ID: "backwards", Source: source, Target: workflow.Components[1].ID, SourceHandle: "left", TargetHandle: "right"},
	)

	result := newValidator().Validate(context.Background(), workflow.Graph())

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, `Connection "dangling": target component "ghost" does not exist`)
	assert.Contains(t, result.Errors, `Connection "backwards": "left" is not an outgoing handle`)
	assert.Contains(t, result.Errors, `Connection "backwards": "right" is not an incoming handle`)
}

func TestValidator_UnconnectedComponentIsWarning(t *testing.T) {
	workflow := testutil.CreateTestWorkflow()
	lonely := testutil.CreateTestComponent(models.ComponentKindCondition)
	lonely.Data.Label = "Branch"
	workflow.Components = append(workflow.Components, lonely)

	result := newValidator().Validate(context.Background(), workflow.Graph())

	assert.True(t, result.Valid)
	assert.Equal(t, []string{models.WarningPrefix + ` Component "Branch" is not connected`}, result.Warnings())
	assert.Empty(t, result.HardErrors())
}

func TestValidator_SingleComponentNeedsNoConnection(t *testing.T) {
	workflow := testutil.CreateTestWorkflow()
	workflow.Components = workflow.Components[:1]
	workflow.Connections = nil

	result := newValidator().Validate(context.Background(), workflow.Graph())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}
