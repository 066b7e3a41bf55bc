// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/schema"
)

// NewRegistry builds the component schema registry shared by the service and the CLI.
func NewRegistry(ctx context.Context, logger *slog.Logger) *schema.Registry {
	reg := schema.NewRegistry()

	for _, kind := range reg.Kinds() {
		logger.DebugContext(ctx, "Registered component kind", "kind", kind, "label", reg.Label(kind))
	}

	return reg
}
