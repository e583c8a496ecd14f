// Package forms provides field descriptors and validation for the intake steps.
package forms

import (
	"strings"
	"unicode"
)

// FieldType identifies the type of form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldFile     FieldType = "file"
	FieldDate     FieldType = "date"
)

// Field represents a form field.
type Field struct {
	// Name is the field name (used in event payloads and error keys).
	Name string

	// Type is the field type.
	Type FieldType

	// Label is the display label.
	Label string

	// Required indicates if the field is required.
	Required bool

	// Disabled indicates if the field is disabled.
	Disabled bool

	// Validators are the field validators, run in order.
	Validators []Validator

	// Options are the available options (for select/radio fields).
	Options []Option

	// MaxLength caps the input length (0 = unlimited).
	MaxLength int
}

// Option represents a select/radio option.
type Option struct {
	Value string
	Label string
}

// FieldOption is a function that configures a field.
type FieldOption func(*Field)

// NewField creates a new field.
func NewField(name string, fieldType FieldType, label string, opts ...FieldOption) Field {
	field := Field{
		Name:  name,
		Type:  fieldType,
		Label: label,
	}

	for _, opt := range opts {
		opt(&field)
	}

	return field
}

// WithRequired marks the field as required with the given message.
// The required check always runs before the other validators.
func WithRequired(msg string) FieldOption {
	return func(f *Field) {
		f.Required = true
		f.Validators = append([]Validator{Required(msg)}, f.Validators...)
	}
}

// WithDisabled marks the field as disabled when cond holds.
func WithDisabled(cond bool) FieldOption {
	return func(f *Field) {
		f.Disabled = cond
	}
}

// WithValidator adds a validator.
func WithValidator(v Validator) FieldOption {
	return func(f *Field) {
		f.Validators = append(f.Validators, v)
	}
}

// WithOptions sets the select/radio options.
func WithOptions(options ...Option) FieldOption {
	return func(f *Field) {
		f.Options = options
	}
}

// WithMaxLength caps the input length.
func WithMaxLength(n int) FieldOption {
	return func(f *Field) {
		f.MaxLength = n
	}
}

// Check runs the field's validators and returns the first failing message.
func (f Field) Check(value any) string {
	for _, v := range f.Validators {
		if err := v.Validate(value); err != nil {
			return v.Message()
		}
	}
	return ""
}

// Errors maps field names to their single active message.
type Errors map[string]string

// Set records msg for field; an empty msg clears it.
func (e Errors) Set(field, msg string) {
	if msg == "" {
		delete(e, field)
		return
	}
	e[field] = msg
}

// Get returns the message for field.
func (e Errors) Get(field string) string {
	return e[field]
}

// Has returns true if field has an active message.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Clear removes every message whose key starts with prefix.
func (e Errors) Clear(prefix string) {
	for k := range e {
		if strings.HasPrefix(k, prefix) {
			delete(e, k)
		}
	}
}

// Validate checks every field against values and returns the failures.
// Fields missing from values are checked as empty strings.
func Validate(fields []Field, values map[string]string) Errors {
	errs := make(Errors)
	for _, f := range fields {
		errs.Set(f.Name, f.Check(values[f.Name]))
	}
	return errs
}

// Revalidate rechecks only the fields that currently have a message,
// so a message disappears as soon as its field becomes valid.
func Revalidate(errs Errors, fields []Field, values map[string]string) {
	for _, f := range fields {
		if errs.Has(f.Name) {
			errs.Set(f.Name, f.Check(values[f.Name]))
		}
	}
}

// Input filters

// DigitsOnly drops every non-digit rune and truncates to max digits.
func DigitsOnly(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if max > 0 && b.Len() >= max {
				break
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripDigits drops every digit rune.
func StripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
}
