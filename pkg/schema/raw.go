package schema

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
)

// ApplyRawEdit applies a JSON text edit to a raw configuration. The edit is accepted only when
// text is a JSON object; anything else leaves the current value in place and reports false.
func ApplyRawEdit(current RawConfig, text string) (RawConfig, bool) {
	trimmed := strings.TrimSpace(text)

	var object map[string]any
	if err := json.Unmarshal([]byte(trimmed), &object); err != nil || object == nil {
		return current, false
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(trimmed)); err != nil {
		return current, false
	}

	return RawConfig{ComponentKind: current.ComponentKind, Data: compact.Bytes()}, true
}

// FormatRaw renders a raw configuration as indented JSON, the way it is shown for editing.
func FormatRaw(cfg RawConfig) string {
	if len(cfg.Data) == 0 {
		return "{}"
	}

	var out bytes.Buffer
	if err := json.Indent(&out, cfg.Data, "", "  "); err != nil {
		return string(cfg.Data)
	}

	return out.String()
}

// NewRaw builds an empty raw configuration for kind.
func NewRaw(kind models.ComponentKind) RawConfig {
	return RawConfig{ComponentKind: kind, Data: json.RawMessage("{}")}
}
