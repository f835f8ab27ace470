package handler

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cms-backend/internal/apperr"
)

var messages = map[string]string{
	"required":    "the field '%s' is required",
	"min":         "the field '%s' must be at least %s",
	"max":         "the field '%s' must be at most %s characters",
	"gte":         "the field '%s' must be greater than or equal to %s",
	"hexcolor":    "the field '%s' must be a hex color",
	"excludesall": "the field '%s' contains forbidden characters",
	"oneof":       "the field '%s' must be one of %s",
}

// Validator adapts go-playground/validator to echo. Field names in messages
// are the JSON names.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator. Failures are InvalidInput with one
// message per offending field.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.InvalidInput, "invalid request body", err)
	}
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, message(e))
	}
	sort.Strings(out)
	return apperr.New(apperr.InvalidInput, strings.Join(out, "; "))
}

func message(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	tmpl, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("the field '%s' is invalid: %s", field, e.Tag())
	}
	if strings.Count(tmpl, "%s") == 2 {
		return fmt.Sprintf(tmpl, field, e.Param())
	}
	return fmt.Sprintf(tmpl, field)
}
