package model

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldViolation describes one rule a book field failed.
type FieldViolation struct {
	Field string
	Rule  string
	Param string
}

// ValidationError is returned by Validate when strict validation rejects a
// book. It lists every failing field, not only the first.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		rule := v.Rule
		if v.Param != "" {
			rule += "=" + v.Param
		}
		parts = append(parts, v.Field+" ("+rule+")")
	}
	return "book validation failed: " + strings.Join(parts, ", ")
}

var (
	validatorOnce sync.Once
	bookValidator *validator.Validate
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})

		bookValidator = v
	})
	return bookValidator
}

// Validate enforces the strict-mode constraints: non-blank name, author and
// status, text fields of at most 64 characters and a year between 1 and 9999.
// Values are never truncated.
func (b *Book) Validate() error {
	err := getValidator().Struct(b)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Violations: make([]FieldViolation, 0, len(verrs))}
	for _, fe := range verrs {
		out.Violations = append(out.Violations, FieldViolation{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}
