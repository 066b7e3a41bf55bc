// Package apitest runs the workflow service in-process for client-side tests.
package apitest

import (
	"net/http/httptest"
	"testing"

	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/dukex/flowcanvas/pkg/persistence/file"
	"github.com/dukex/flowcanvas/pkg/schema"
	"github.com/dukex/flowcanvas/pkg/services"
	"github.com/dukex/flowcanvas/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"golang.org/x/crypto/bcrypt"
)

// NewServer starts the service over file persistence in a temporary directory. It is closed
// when the test ends.
func NewServer(t *testing.T) *httptest.Server {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	registry := schema.NewRegistry()
	tracer := otelhelper.NoopTracer()
	logger := log.Discard()

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(p, nil, logger, tracer),
		services.NewAuth(p.UserRepository(), services.AuthConfig{
			Secret:     "apitest",
			BcryptCost: bcrypt.MinCost,
		}, logger, tracer),
		services.NewValidator(registry, logger, tracer),
		validator.New(validator.WithRequiredStructEnabled()),
		registry,
	)

	app := fiber.New()
	handlers.Routes(app)

	server := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(server.Close)

	return server
}
