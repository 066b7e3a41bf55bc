package models

import "strings"

// WarningPrefix marks a validation entry as a warning rather than a hard error.
const WarningPrefix = "⚠️"

// ValidationResult is the verdict of the remote validator.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// FailedValidation synthesizes a single-error result, used when the validation request itself fails.
func FailedValidation(message string) ValidationResult {
	return ValidationResult{Valid: false, Errors: []string{message}}
}

// IsWarning reports whether a validation entry is a warning.
func IsWarning(entry string) bool {
	return strings.HasPrefix(entry, WarningPrefix)
}

// Warnings returns the entries rendered as warnings.
func (r ValidationResult) Warnings() []string {
	var out []string

	for _, e := range r.Errors {
		if IsWarning(e) {
			out = append(out, e)
		}
	}

	return out
}

// HardErrors returns the entries that are not warnings.
func (r ValidationResult) HardErrors() []string {
	var out []string

	for _, e := range r.Errors {
		if !IsWarning(e) {
			out = append(out, e)
		}
	}

	return out
}
