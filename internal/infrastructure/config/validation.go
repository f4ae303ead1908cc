package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks a Config against its validate tags. Failures are reported by config
// key (simulation.max_life) rather than Go field name.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the harbor-specific rules registered
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	// preset: the value names one of Presets
	_ = v.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
		_, ok := Presets[fl.Field().String()]
		return ok
	})

	return &Validator{validate: v}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

func (v *Validator) formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		key := e.Namespace()
		if _, rest, found := strings.Cut(key, "."); found {
			key = rest
		}

		rule := e.Tag()
		if e.Param() != "" {
			rule = fmt.Sprintf("%s=%s", rule, e.Param())
		}
		messages = append(messages, fmt.Sprintf("%s: fails %s (value: '%v')", key, rule, e.Value()))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// ValidateConfig validates the entire configuration
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
