// Package validation collects field errors before a value is accepted.
package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Validator accumulates field errors.
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records the first error for a field.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "is required")
}

func (v *Validator) Positive(field string, value int64) {
	v.Check(value > 0, field, "must be greater than zero")
}

func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
}

// Err returns nil when valid, otherwise an *Error listing every field.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &Error{Fields: v.Errors}
}

// Error reports invalid fields.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
