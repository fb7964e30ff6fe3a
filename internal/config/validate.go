package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their config key, not the Go name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks struct tags first, then the rules that span sections.
// The first problem found is returned as a *ValidationError.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return fmt.Errorf("validate config: %w", err)
	}

	if c.Crawl.Mode != c.Classifier.Mode {
		return &ValidationError{
			Field:   "crawl.mode",
			Message: fmt.Sprintf("must match classifier.mode %q", c.Classifier.Mode),
		}
	}
	if c.Crawl.RespectRobots && c.Fetcher.RobotsCacheTTL < 0 {
		return &ValidationError{Field: "fetcher.robots_cache_ttl", Message: "must not be negative"}
	}
	for i, d := range c.Fetcher.RetryDelays {
		if d < 0 {
			return &ValidationError{
				Field:   fmt.Sprintf("fetcher.retry_delays[%d]", i),
				Message: "must not be negative",
			}
		}
	}
	return nil
}

// fieldError turns a validator failure into a ValidationError keyed like
// "llm.temperature".
func fieldError(fe validator.FieldError) *ValidationError {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "oneof":
		msg = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		msg = "must be at least " + fe.Param()
	case "lte":
		msg = "must be at most " + fe.Param()
	case "url":
		msg = "must be a valid URL"
	default:
		msg = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &ValidationError{Field: ns, Message: msg}
}
