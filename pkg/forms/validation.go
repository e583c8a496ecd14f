package forms

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the wire format of every date field (HTML date input).
const DateLayout = "2006-01-02"

// Validator validates a field value.
type Validator interface {
	// Validate checks if the value is valid.
	Validate(value any) error

	// Message returns the error message.
	Message() string
}

var (
	errRequired = errors.New("required")
	errFormat   = errors.New("invalid format")
	errOption   = errors.New("invalid option")
	errDate     = errors.New("invalid date")
)

// Patterns shared by the intake steps.
var (
	EmailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	PhonePattern       = regexp.MustCompile(`^[0-9]{10}$`)
	ZIPPattern         = regexp.MustCompile(`^\d{5}$`)
	LettersOnlyPattern = regexp.MustCompile(`^[A-Za-z\s]+$`)
)

// RequiredValidator validates that a field is not empty.
type RequiredValidator struct {
	Msg string
}

func (v RequiredValidator) Validate(value any) error {
	if isEmpty(value) {
		return errRequired
	}
	return nil
}

func (v RequiredValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "This field is required"
}

// PatternValidator validates against a compiled regex pattern.
type PatternValidator struct {
	Pattern *regexp.Regexp
	Msg     string
}

func (v PatternValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	if !v.Pattern.MatchString(str) {
		return errFormat
	}
	return nil
}

func (v PatternValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "Invalid format"
}

// OneOfValidator validates that value is one of allowed values.
type OneOfValidator struct {
	Values []string
	Msg    string
}

func (v OneOfValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	for _, allowed := range v.Values {
		if str == allowed {
			return nil
		}
	}
	return errOption
}

func (v OneOfValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "Invalid selection"
}

// DateValidator compares an ISO date against a reference day.
// With Strict the value must fall after the day, otherwise it must not.
type DateValidator struct {
	Day    func() time.Time
	Strict bool
	Msg    string
}

func (v DateValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	d, err := ParseDate(str)
	if err != nil {
		return errDate
	}
	day := TruncateDay(v.Day())
	if v.Strict {
		if !d.After(day) {
			return errDate
		}
		return nil
	}
	if d.After(day) {
		return errDate
	}
	return nil
}

func (v DateValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "Invalid date"
}

// CustomValidator allows custom validation functions.
type CustomValidator struct {
	Fn  func(value any) error
	Msg string
}

func (v CustomValidator) Validate(value any) error {
	return v.Fn(value)
}

func (v CustomValidator) Message() string {
	return v.Msg
}

// ParseDate parses an ISO calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// TruncateDay returns t's calendar date, read in t's location, as midnight UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

// Convenience constructors

// Required returns a required validator.
func Required(msg ...string) Validator {
	v := RequiredValidator{}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}

// Email returns an email validator.
func Email(msg ...string) Validator {
	return pattern(EmailPattern, "Please enter a valid email address", msg)
}

// Phone returns a 10-digit phone validator.
func Phone(msg ...string) Validator {
	return pattern(PhonePattern, "Phone number must be exactly 10 digits", msg)
}

// ZIP returns a 5-digit ZIP code validator.
func ZIP(msg ...string) Validator {
	return pattern(ZIPPattern, "ZIP Code must be exactly 5 digits", msg)
}

// LettersOnly returns a letters-and-spaces validator.
func LettersOnly(msg ...string) Validator {
	return pattern(LettersOnlyPattern, "Can only contain letters", msg)
}

// OneOf returns a one-of validator.
func OneOf(values []string, msg ...string) Validator {
	v := OneOfValidator{Values: values}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}

// NotAfter returns a validator rejecting dates later than day().
func NotAfter(day func() time.Time, msg ...string) Validator {
	v := DateValidator{Day: day}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}

// After returns a validator requiring dates strictly later than day().
func After(day func() time.Time, msg ...string) Validator {
	v := DateValidator{Day: day, Strict: true}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}

// Custom returns a custom validator.
func Custom(fn func(value any) error, msg string) Validator {
	return CustomValidator{Fn: fn, Msg: msg}
}

func pattern(re *regexp.Regexp, def string, msg []string) Validator {
	v := PatternValidator{Pattern: re, Msg: def}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}
