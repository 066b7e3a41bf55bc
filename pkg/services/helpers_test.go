package services_test

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/dukex/flowcanvas/pkg/persistence/file"
	"github.com/dukex/flowcanvas/pkg/schema"
	"github.com/dukex/flowcanvas/pkg/services"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newWorkflowService(t *testing.T) *services.Workflow {
	t.Helper()

	return services.NewWorkflow(file.NewPersistence(t.TempDir()), nil, log.Discard(), otelhelper.NoopTracer())
}

func newAuthService(t *testing.T) *services.Auth {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return services.NewAuth(p.UserRepository(), services.AuthConfig{
		Secret:     testSecret,
		BcryptCost: bcrypt.MinCost,
	}, log.Discard(), otelhelper.NoopTracer())
}

func newValidator() *services.Validator {
	return services.NewValidator(schema.NewRegistry(), log.Discard(), otelhelper.NoopTracer())
}
