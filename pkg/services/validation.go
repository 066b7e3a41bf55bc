package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/dukex/flowcanvas/pkg/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Validator performs the shallow structural and configuration checks of a workflow graph.
// It does not detect cycles.
type Validator struct {
	registry *schema.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewValidator(registry *schema.Registry, logger *slog.Logger, tracer trace.Tracer) *Validator {
	return &Validator{
		registry: registry,
		logger:   logger.With("module", "validator"),
		tracer:   tracer,
	}
}

// Validate checks g. Warnings carry models.WarningPrefix and do not affect the verdict.
func (v *Validator) Validate(ctx context.Context, g models.Graph) models.ValidationResult {
	ctx, span := otelhelper.StartSpan(ctx, v.tracer, "workflow.validate",
		attribute.Int(otelhelper.ComponentCountKey, len(g.Components)))
	defer span.End()

	var problems, warnings []string

	if len(g.Components) == 0 {
		problems = append(problems, "Workflow must contain at least one component")
	}

	labels := make(map[string]string, len(g.Components))

	for _, c := range g.Components {
		if _, dup := labels[c.ID]; dup {
			problems = append(problems, fmt.Sprintf("Duplicate component id %q", c.ID))

			continue
		}

		labels[c.ID] = displayName(c)
		problems = append(problems, v.checkComponent(ctx, c)...)
	}

	connected := make(map[string]bool, len(g.Components))

	for _, conn := range g.Connections {
		problems = append(problems, checkConnection(conn, labels)...)
		connected[conn.Source] = true
		connected[conn.Target] = true
	}

	if len(g.Components) > 1 {
		for _, c := range g.Components {
			if !connected[c.ID] {
				warnings = append(warnings,
					fmt.Sprintf("%s Component %q is not connected", models.WarningPrefix, labels[c.ID]))
			}
		}
	}

	result := models.ValidationResult{
		Valid:  len(problems) == 0,
		Errors: append(problems, warnings...),
	}

	if result.Errors == nil {
		result.Errors = []string{}
	}

	span.SetAttributes(attribute.Bool(otelhelper.ValidationValidKey, result.Valid))
	v.logger.DebugContext(ctx, "Workflow validated", "valid", result.Valid, "problems", len(problems),
		"warnings", len(warnings))

	return result
}

func (v *Validator) checkComponent(ctx context.Context, c models.Component) []string {
	name := displayName(c)

	if _, ok := v.registry.Definition(c.Data.Type); !ok {
		return []string{fmt.Sprintf("Component %q has unknown type %q", name, c.Data.Type)}
	}

	cfg, err := v.registry.Decode(c.Data.Type, c.Data.Config)
	if err != nil {
		return []string{fmt.Sprintf("Component %q: %v", name, err)}
	}

	var problems []string

	fieldErrors := v.registry.Validate(c.Data.Label, cfg)
	for _, field := range slices.Sorted(maps.Keys(fieldErrors)) {
		problems = append(problems, fmt.Sprintf("Component %q: %s", name, fieldErrors[field]))
	}

	violations, err := v.registry.CheckDocument(c.Data.Type, c.Data.Config)
	if err != nil {
		v.logger.WarnContext(ctx, "Schema check failed", "component_id", c.ID, "error", err)

		return problems
	}

	for _, violation := range violations {
		problems = append(problems, fmt.Sprintf("Component %q: %s", name, violation))
	}

	return problems
}

func checkConnection(conn models.Connection, labels map[string]string) []string {
	var problems []string

	if _, ok := labels[conn.Source]; !ok {
		problems = append(problems, fmt.Sprintf("Connection %q: source component %q does not exist", conn.ID, conn.Source))
	}

	if _, ok := labels[conn.Target]; !ok {
		problems = append(problems, fmt.Sprintf("Connection %q: target component %q does not exist", conn.ID, conn.Target))
	}

	if !graph.IsSourceHandle(conn.SourceHandle) {
		problems = append(problems, fmt.Sprintf("Connection %q: %q is not an outgoing handle", conn.ID, conn.SourceHandle))
	}

	if !graph.IsTargetHandle(conn.TargetHandle) {
		problems = append(problems, fmt.Sprintf("Connection %q: %q is not an incoming handle", conn.ID, conn.TargetHandle))
	}

	return problems
}

func displayName(c models.Component) string {
	if c.Data.Label != "" {
		return c.Data.Label
	}

	return c.ID
}
