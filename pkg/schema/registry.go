package schema

import (
	"errors"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/go-playground/validator/v10"
)

// LabelField is the key under which a blank node label is reported.
const LabelField = "label"

var labelRequired = "Node label is required"

// FieldErrors maps a field name to a user-facing message.
type FieldErrors map[string]string

// ErrInvalidConfiguration is returned alongside non-empty FieldErrors.
var ErrInvalidConfiguration = errors.New("invalid component configuration")

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}

	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e FieldErrors) Unwrap() error {
	return ErrInvalidConfiguration
}

// Registry resolves component kinds to their definitions and validates configurations.
type Registry struct {
	definitions map[models.ComponentKind]*Definition
	order       []models.ComponentKind
	validate    *validator.Validate
}

// NewRegistry returns a registry loaded with the four built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{
		definitions: make(map[models.ComponentKind]*Definition),
		validate:    newValidator(),
	}

	for _, def := range builtinDefinitions() {
		r.definitions[def.Kind] = def
		r.order = append(r.order, def.Kind)
	}

	return r
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}

		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	_ = v.RegisterValidation("required_if_in", requiredIfIn)

	v.RegisterStructValidation(validateProcess, ProcessConfig{})
	v.RegisterStructValidation(validateOutput, OutputConfig{})

	return v
}

// requiredIfIn implements `required_if_in=Field v1 v2 ...`: the field is required when the
// sibling Field holds one of the listed values.
func requiredIfIn(fl validator.FieldLevel) bool {
	params := strings.Fields(fl.Param())
	if len(params) < 2 {
		return true
	}

	other := reflect.Indirect(fl.Parent()).FieldByName(params[0])
	if !other.IsValid() || other.Kind() != reflect.String {
		return true
	}

	if !slices.Contains(params[1:], other.String()) {
		return true
	}

	return !fl.Field().IsZero()
}

func validateProcess(sl validator.StructLevel) {
	cfg, _ := sl.Current().Interface().(ProcessConfig)

	if !cfg.EnableRetry || cfg.MaxRetries == "" {
		return
	}

	if n, err := strconv.Atoi(strings.TrimSpace(cfg.MaxRetries)); err != nil || n < 0 {
		sl.ReportError(cfg.MaxRetries, "maxRetries", "MaxRetries", "retries", "")
	}
}

func validateOutput(sl validator.StructLevel) {
	cfg, _ := sl.Current().Interface().(OutputConfig)

	if cfg.OutputFormat != "webhook" {
		return
	}

	if cfg.HTTPMethod != "" && !slices.Contains([]string{"POST", "PUT", "PATCH"}, cfg.HTTPMethod) {
		sl.ReportError(cfg.HTTPMethod, "httpMethod", "HTTPMethod", "oneof", "POST PUT PATCH")
	}
}

// Kinds returns the registered kinds in palette order.
func (r *Registry) Kinds() []models.ComponentKind {
	return slices.Clone(r.order)
}

// Definition returns the definition of kind, if registered.
func (r *Registry) Definition(kind models.ComponentKind) (*Definition, bool) {
	def, ok := r.definitions[kind]

	return def, ok
}

// Label returns the palette label of kind, or the kind itself when unregistered.
func (r *Registry) Label(kind models.ComponentKind) string {
	if def, ok := r.definitions[kind]; ok {
		return def.Label
	}

	return string(kind)
}

// Decode converts a wire map into a typed configuration. Unregistered kinds decode to RawConfig.
func (r *Registry) Decode(kind models.ComponentKind, raw map[string]any) (Config, error) {
	if _, ok := r.definitions[kind]; !ok {
		return decodeRaw(kind, raw)
	}

	return Decode(kind, raw)
}

// Defaults returns the initial configuration of kind with display defaults applied.
func (r *Registry) Defaults(kind models.ComponentKind) Config {
	cfg, err := r.Decode(kind, nil)
	if err != nil {
		return NewRaw(kind)
	}

	return WithDefaults(cfg)
}

// Fields returns the fields shown for kind given the current configuration.
func (r *Registry) Fields(kind models.ComponentKind, cfg Config) []Field {
	def, ok := r.definitions[kind]
	if !ok {
		return []Field{rawField}
	}

	values := Encode(cfg)
	fields := make([]Field, 0, len(def.Fields))

	for _, f := range def.Fields {
		if f.Visible(values) {
			fields = append(fields, f)
		}
	}

	return fields
}

// Validate checks a node label and configuration. It returns nil when both are valid.
// It never modifies cfg.
func (r *Registry) Validate(label string, cfg Config) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(label) == "" {
		errs[LabelField] = labelRequired
	}

	if cfg == nil {
		return nilIfEmpty(errs)
	}

	def, ok := r.definitions[cfg.Kind()]
	if _, raw := cfg.(RawConfig); raw || !ok {
		return nilIfEmpty(errs)
	}

	err := r.validate.Struct(cfg)
	if err == nil {
		return nilIfEmpty(errs)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[""] = err.Error()

		return errs
	}

	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := errs[name]; seen {
			continue
		}

		if msg, ok := def.Messages[name]; ok {
			errs[name] = msg
		} else {
			errs[name] = name + " is invalid"
		}
	}

	return nilIfEmpty(errs)
}

func nilIfEmpty(errs FieldErrors) FieldErrors {
	if len(errs) == 0 {
		return nil
	}

	return errs
}
