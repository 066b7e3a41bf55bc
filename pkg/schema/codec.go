package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
)

// Decode converts the free-form wire map of a component into its typed configuration.
// Values are coerced leniently: booleans may arrive as "true"/"false" and text fields as numbers.
// Keys that the kind does not define are kept in Extra.
func Decode(kind models.ComponentKind, raw map[string]any) (Config, error) {
	values := maps.Clone(raw)
	if values == nil {
		values = map[string]any{}
	}

	switch kind {
	case models.ComponentKindInput:
		cfg := InputConfig{
			InputType:    takeString(values, "inputType"),
			DefaultValue: takeString(values, "defaultValue"),
			Required:     takeBool(values, "required"),
			Placeholder:  takeString(values, "placeholder"),
			HelpText:     takeString(values, "helpText"),
		}
		cfg.Extra = rest(values)

		return cfg, nil
	case models.ComponentKindProcess:
		cfg := ProcessConfig{
			ProcessType: takeString(values, "processType"),
			Logic:       takeString(values, "logic"),
			Critical:    takeBool(values, "critical"),
			Timeout:     takeString(values, "timeout"),
			EnableRetry: takeBool(values, "enableRetry"),
			MaxRetries:  takeString(values, "maxRetries"),
		}
		cfg.Extra = rest(values)

		return cfg, nil
	case models.ComponentKindOutput:
		cfg := OutputConfig{
			OutputFormat:     takeString(values, "outputFormat"),
			FileName:         takeString(values, "fileName"),
			EmailTemplate:    takeString(values, "emailTemplate"),
			EmailSubject:     takeString(values, "emailSubject"),
			WebhookURL:       takeString(values, "webhookUrl"),
			HTTPMethod:       takeString(values, "httpMethod"),
			IncludeTimestamp: takeBool(values, "includeTimestamp"),
		}
		cfg.Extra = rest(values)

		return cfg, nil
	case models.ComponentKindCondition:
		cfg := ConditionConfig{
			Condition:    takeString(values, "condition"),
			TrueBranch:   takeString(values, "trueBranch"),
			FalseBranch:  takeString(values, "falseBranch"),
			OperatorType: takeString(values, "operatorType"),
			Description:  takeString(values, "description"),
		}
		cfg.Extra = rest(values)

		return cfg, nil
	default:
		return decodeRaw(kind, values)
	}
}

func decodeRaw(kind models.ComponentKind, values map[string]any) (Config, error) {
	if values == nil {
		values = map[string]any{}
	}

	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s configuration: %w", kind, err)
	}

	return RawConfig{ComponentKind: kind, Data: data}, nil
}

// Encode converts a typed configuration back into the wire map.
func Encode(cfg Config) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}

	if raw, ok := cfg.(RawConfig); ok {
		out := map[string]any{}
		if len(raw.Data) > 0 {
			// A non-object payload encodes as an empty map.
			_ = json.Unmarshal(raw.Data, &out)
		}

		if out == nil {
			out = map[string]any{}
		}

		return out
	}

	out := map[string]any{}

	maps.Copy(out, extraOf(cfg))

	data, err := json.Marshal(cfg)
	if err != nil {
		return out
	}

	var typed map[string]any
	if err := json.Unmarshal(data, &typed); err != nil {
		return out
	}

	maps.Copy(out, typed)

	return out
}

func extraOf(cfg Config) map[string]any {
	switch c := cfg.(type) {
	case InputConfig:
		return c.Extra
	case ProcessConfig:
		return c.Extra
	case OutputConfig:
		return c.Extra
	case ConditionConfig:
		return c.Extra
	default:
		return nil
	}
}

func takeString(values map[string]any, key string) string {
	v, ok := values[key]
	if !ok {
		return ""
	}

	delete(values, key)

	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func takeBool(values map[string]any, key string) bool {
	v, ok := values[key]
	if !ok {
		return false
	}

	delete(values, key)

	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "on", "yes", "1":
			return true
		default:
			return false
		}
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

func rest(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}

	return values
}
