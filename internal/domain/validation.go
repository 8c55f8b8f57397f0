package domain

import (
	"sort"
	"strings"
)

// ValidationErrors collects messages keyed by field name.
type ValidationErrors map[string][]string

// Add appends a message for field.
func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// FieldErrors exposes the collected messages.
func (v ValidationErrors) FieldErrors() map[string][]string {
	return v
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(v[field], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
