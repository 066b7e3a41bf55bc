// Package schema holds the per-kind configuration shapes of workflow components,
// their field definitions, defaults and validation rules.
package schema

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/dukex/flowcanvas/pkg/models"
)

// Config is the configuration of one component. The concrete type is keyed by the
// component kind: InputConfig, ProcessConfig, OutputConfig, ConditionConfig, or RawConfig
// for any kind the registry does not know.
type Config interface {
	Kind() models.ComponentKind
}

// InputConfig configures an input component.
type InputConfig struct {
	InputType    string         `json:"inputType,omitempty"    validate:"required"`
	DefaultValue string         `json:"defaultValue,omitempty" validate:"required_if=Required true"`
	Required     bool           `json:"required,omitempty"`
	Placeholder  string         `json:"placeholder,omitempty"`
	HelpText     string         `json:"helpText,omitempty"`
	Extra        map[string]any `json:"-"`
}

func (InputConfig) Kind() models.ComponentKind { return models.ComponentKindInput }

// ProcessConfig configures a process component.
type ProcessConfig struct {
	ProcessType string         `json:"processType,omitempty" validate:"required"`
	Logic       string         `json:"logic,omitempty"       validate:"notblank"`
	Critical    bool           `json:"critical,omitempty"`
	Timeout     string         `json:"timeout,omitempty"     validate:"omitempty,numeric"`
	EnableRetry bool           `json:"enableRetry,omitempty"`
	MaxRetries  string         `json:"maxRetries,omitempty"` // Only meaningful when EnableRetry
	Extra       map[string]any `json:"-"`
}

func (ProcessConfig) Kind() models.ComponentKind { return models.ComponentKindProcess }

// OutputConfig configures an output component.
type OutputConfig struct {
	OutputFormat     string         `json:"outputFormat,omitempty"     validate:"required"`
	FileName         string         `json:"fileName,omitempty"         validate:"required_if_in=OutputFormat csv json xml"`
	EmailTemplate    string         `json:"emailTemplate,omitempty"`
	EmailSubject     string         `json:"emailSubject,omitempty"`
	WebhookURL       string         `json:"webhookUrl,omitempty"`
	HTTPMethod       string         `json:"httpMethod,omitempty"`
	IncludeTimestamp bool           `json:"includeTimestamp,omitempty"`
	Extra            map[string]any `json:"-"`
}

func (OutputConfig) Kind() models.ComponentKind { return models.ComponentKindOutput }

// ConditionConfig configures a condition component.
type ConditionConfig struct {
	Condition    string         `json:"condition,omitempty"    validate:"notblank"`
	TrueBranch   string         `json:"trueBranch,omitempty"   validate:"notblank"`
	FalseBranch  string         `json:"falseBranch,omitempty"  validate:"notblank"`
	OperatorType string         `json:"operatorType,omitempty"`
	Description  string         `json:"description,omitempty"`
	Extra        map[string]any `json:"-"`
}

func (ConditionConfig) Kind() models.ComponentKind { return models.ComponentKindCondition }

// RawConfig is the configuration of a kind without a registered shape. Data is a JSON object.
type RawConfig struct {
	ComponentKind models.ComponentKind
	Data          json.RawMessage
}

func (r RawConfig) Kind() models.ComponentKind { return r.ComponentKind }

// Output formats written to a file.
var fileOutputFormats = []string{"csv", "json", "xml"}

// IsFileOutput reports whether the output format writes a file and therefore needs a file name.
func IsFileOutput(format string) bool {
	return slices.Contains(fileOutputFormats, format)
}

// WithDefaults returns a copy of cfg with the display defaults filled in.
func WithDefaults(cfg Config) Config {
	switch c := cfg.(type) {
	case ProcessConfig:
		if c.EnableRetry && c.MaxRetries == "" {
			c.MaxRetries = "3"
		}

		c.Extra = maps.Clone(c.Extra)

		return c
	case OutputConfig:
		if c.OutputFormat == "webhook" && c.HTTPMethod == "" {
			c.HTTPMethod = "POST"
		}

		c.Extra = maps.Clone(c.Extra)

		return c
	case ConditionConfig:
		if c.TrueBranch == "" {
			c.TrueBranch = "True"
		}

		if c.FalseBranch == "" {
			c.FalseBranch = "False"
		}

		if c.OperatorType == "" {
			c.OperatorType = "comparison"
		}

		c.Extra = maps.Clone(c.Extra)

		return c
	default:
		return cfg
	}
}
