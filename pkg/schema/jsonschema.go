package schema

import (
	"fmt"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// JSONSchema exports the field table of kind as a JSON Schema document.
// Fields that are only required conditionally are not listed as required.
func (r *Registry) JSONSchema(kind models.ComponentKind) *models.JSONSchema {
	def, ok := r.definitions[kind]
	if !ok {
		return &models.JSONSchema{
			Schema:      draft07,
			Type:        "object",
			Title:       string(kind),
			Description: rawField.HelpText,
		}
	}

	doc := &models.JSONSchema{
		Schema:     draft07,
		Type:       "object",
		Title:      def.Label,
		Properties: make(map[string]*models.Property, len(def.Fields)),
	}

	for _, f := range def.Fields {
		prop := &models.Property{
			Title:       f.Label,
			Description: f.HelpText,
			Default:     f.Default,
		}

		switch f.Type {
		case FieldCheckbox:
			prop.Type = []string{"boolean", "string"}
		case FieldNumber:
			prop.Type = []string{"string", "number"}
		default:
			prop.Type = "string"
		}

		if len(f.Options) > 0 {
			// The empty value is what an untouched select holds.
			prop.Enum = append(prop.Enum, "")
			for _, o := range f.Options {
				prop.Enum = append(prop.Enum, o.Value)
			}
		}

		doc.Properties[f.Name] = prop

		if f.Required && f.visibleWhen == nil {
			doc.Required = append(doc.Required, f.Name)
		}
	}

	return doc
}

// CheckDocument validates a wire configuration map against the JSON Schema of kind and
// returns type and enum violations. Missing required fields are left to Validate, which
// reports them with user-facing messages.
func (r *Registry) CheckDocument(kind models.ComponentKind, config map[string]any) ([]string, error) {
	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(r.JSONSchema(kind))
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s configuration: %w", kind, err)
	}

	if result.Valid() {
		return nil, nil
	}

	var problems []string

	for _, desc := range result.Errors() {
		if desc.Type() == "required" {
			continue
		}

		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}

	return problems, nil
}
