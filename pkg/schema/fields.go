package schema

import "github.com/dukex/flowcanvas/pkg/models"

// FieldType tells the rendering surface which widget to draw.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextArea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldJSON     FieldType = "json"
)

// Option is one choice of a select field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Field describes one configuration field of a component kind.
type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Options  []Option  `json:"options,omitempty"`
	Default  any       `json:"default,omitempty"`
	Required bool      `json:"required,omitempty"`
	HelpText string    `json:"helpText,omitempty"`

	// visibleWhen hides the field unless it returns true for the current values.
	visibleWhen func(values map[string]any) bool
}

// Visible reports whether the field is shown for the given configuration values.
func (f Field) Visible(values map[string]any) bool {
	if f.visibleWhen == nil {
		return true
	}

	return f.visibleWhen(values)
}

// Definition is the registered shape of a component kind.
type Definition struct {
	Kind     models.ComponentKind
	Label    string // Palette label, also the prefix of generated node labels
	Color    string
	Fields   []Field
	Messages map[string]string // field name -> required message
}

func stringValue(values map[string]any, key string) string {
	v, _ := values[key].(string)

	return v
}

func flagValue(values map[string]any, key string) bool {
	switch v := values[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

func builtinDefinitions() []*Definition {
	return []*Definition{
		{
			Kind:  models.ComponentKindInput,
			Label: "Input",
			Color: "#059669",
			Fields: []Field{
				{
					Name: "inputType", Label: "Input Type", Type: FieldSelect, Required: true,
					Options: []Option{
						{Label: "Text", Value: "text"},
						{Label: "Number", Value: "number"},
						{Label: "Email", Value: "email"},
						{Label: "Password", Value: "password"},
						{Label: "JSON", Value: "json"},
						{Label: "File", Value: "file"},
					},
				},
				{Name: "defaultValue", Label: "Default Value", Type: FieldText, HelpText: "Optional default value"},
				{Name: "required", Label: "Required Field", Type: FieldCheckbox, HelpText: "Mark this input as required for workflow execution"},
				{Name: "placeholder", Label: "Placeholder Text", Type: FieldText, HelpText: "Placeholder text shown to users"},
				{Name: "helpText", Label: "Help Text", Type: FieldTextArea, HelpText: "Additional help text for users"},
			},
			Messages: map[string]string{
				"inputType":    "Input type is required",
				"defaultValue": "Default value is required for required inputs",
			},
		},
		{
			Kind:  models.ComponentKindProcess,
			Label: "Process",
			Color: "#2563eb",
			Fields: []Field{
				{
					Name: "processType", Label: "Process Type", Type: FieldSelect, Required: true,
					Options: []Option{
						{Label: "Transform Data", Value: "transform"},
						{Label: "Filter Data", Value: "filter"},
						{Label: "Aggregate Data", Value: "aggregate"},
						{Label: "Custom Logic", Value: "custom"},
					},
				},
				{Name: "logic", Label: "Processing Logic", Type: FieldTextArea, Required: true, HelpText: "Define the processing logic for this component"},
				{Name: "critical", Label: "Critical Process", Type: FieldCheckbox, HelpText: "Mark as critical - requires error handling"},
				{Name: "timeout", Label: "Timeout (seconds)", Type: FieldNumber, HelpText: "Maximum execution time (optional)"},
				{Name: "enableRetry", Label: "Enable Retry", Type: FieldCheckbox, HelpText: "Retry on failure"},
				{
					Name: "maxRetries", Label: "Max Retries", Type: FieldNumber, Default: "3",
					visibleWhen: func(values map[string]any) bool { return flagValue(values, "enableRetry") },
				},
			},
			Messages: map[string]string{
				"processType": "Process type is required",
				"logic":       "Processing logic is required",
				"timeout":     "Timeout must be a number of seconds",
				"maxRetries":  "Max retries must be a whole number",
			},
		},
		{
			Kind:  models.ComponentKindOutput,
			Label: "Output",
			Color: "#dc2626",
			Fields: []Field{
				{
					Name: "outputFormat", Label: "Output Format", Type: FieldSelect, Required: true,
					Options: []Option{
						{Label: "JSON", Value: "json"},
						{Label: "CSV", Value: "csv"},
						{Label: "XML", Value: "xml"},
						{Label: "Plain Text", Value: "text"},
						{Label: "Email", Value: "email"},
						{Label: "Webhook", Value: "webhook"},
					},
				},
				{
					Name: "fileName", Label: "File Name", Type: FieldText, Required: true,
					HelpText:    "Include file extension (e.g., data.json)",
					visibleWhen: func(values map[string]any) bool { return IsFileOutput(stringValue(values, "outputFormat")) },
				},
				{
					Name: "emailTemplate", Label: "Email Template", Type: FieldTextArea, HelpText: "Email template content",
					visibleWhen: outputFormatIs("email"),
				},
				{
					Name: "emailSubject", Label: "Subject Line", Type: FieldText,
					visibleWhen: outputFormatIs("email"),
				},
				{
					Name: "webhookUrl", Label: "Webhook URL", Type: FieldText, HelpText: "HTTP endpoint to send data to",
					visibleWhen: outputFormatIs("webhook"),
				},
				{
					Name: "httpMethod", Label: "HTTP Method", Type: FieldSelect, Default: "POST",
					Options: []Option{
						{Label: "POST", Value: "POST"},
						{Label: "PUT", Value: "PUT"},
						{Label: "PATCH", Value: "PATCH"},
					},
					visibleWhen: outputFormatIs("webhook"),
				},
				{Name: "includeTimestamp", Label: "Include Timestamp", Type: FieldCheckbox, HelpText: "Add timestamp to output data"},
			},
			Messages: map[string]string{
				"outputFormat": "Output format is required",
				"fileName":     "File name is required for file outputs",
				"httpMethod":   "HTTP method must be one of POST, PUT, PATCH",
			},
		},
		{
			Kind:  models.ComponentKindCondition,
			Label: "Condition",
			Color: "#7c3aed",
			Fields: []Field{
				{
					Name: "condition", Label: "Condition Logic", Type: FieldTextArea, Required: true,
					HelpText: "Enter a condition expression (e.g., value > 10, status === 'active')",
				},
				{Name: "trueBranch", Label: "True Branch Label", Type: FieldText, Required: true, Default: "True"},
				{Name: "falseBranch", Label: "False Branch Label", Type: FieldText, Required: true, Default: "False"},
				{
					Name: "operatorType", Label: "Operator Type", Type: FieldSelect, Default: "comparison",
					Options: []Option{
						{Label: "Comparison (>, <, ==)", Value: "comparison"},
						{Label: "Logical (&&, ||)", Value: "logical"},
						{Label: "String (contains, startsWith)", Value: "string"},
						{Label: "Custom Expression", Value: "custom"},
					},
				},
				{Name: "description", Label: "Description", Type: FieldTextArea, HelpText: "Describe what this condition checks"},
			},
			Messages: map[string]string{
				"condition":   "Condition logic is required",
				"trueBranch":  "True branch label is required",
				"falseBranch": "False branch label is required",
			},
		},
	}
}

func outputFormatIs(format string) func(map[string]any) bool {
	return func(values map[string]any) bool {
		return stringValue(values, "outputFormat") == format
	}
}

// rawField is the single field shown for kinds without a definition.
var rawField = Field{
	Name:     "config",
	Label:    "Configuration (JSON)",
	Type:     FieldJSON,
	HelpText: "Raw JSON configuration for this component",
}
