// Package records declares the entity shapes exchanged with the backend and
// the form inputs that create or update them.
package records

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the form and wire layout for calendar dates.
const DateLayout = "2006-01-02"

var validate = newValidator()

// newValidator reports fields by their json name, which is also the form
// field name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FormError lists invalid form fields by their form name.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "Please check: " + strings.Join(names, ", ")
}

func (e *FormError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// form reads typed values out of url.Values and remembers parse failures.
type form struct {
	values url.Values
	errs   FormError
}

func newForm(values url.Values) *form {
	return &form{values: values}
}

func (f *form) str(key string) string {
	return strings.TrimSpace(f.values.Get(key))
}

func (f *form) optStr(key string) *string {
	v := f.str(key)
	if v == "" {
		return nil
	}
	return &v
}

func (f *form) integer(key string) int {
	raw := f.str(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f.errs.add(key, "must be a whole number")
		return 0
	}
	return n
}

func (f *form) money(key string) decimal.Decimal {
	raw := strings.ReplaceAll(f.str(key), ",", "")
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		f.errs.add(key, "must be an amount")
		return decimal.Zero
	}
	return d
}

func (f *form) date(key string) *time.Time {
	raw := f.str(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		f.errs.add(key, "must be a date (YYYY-MM-DD)")
		return nil
	}
	return &t
}

func (f *form) boolean(key string) bool {
	switch strings.ToLower(f.str(key)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

// check runs struct validation and merges parse failures.
func (f *form) check(input any) error {
	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			f.errs.add(fe.Field(), describe(fe))
		}
	}
	if len(f.errs.Fields) > 0 {
		return &f.errs
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be an e-mail address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "ltefield":
		return "must not exceed " + fe.Param()
	case "gtfield":
		return "must be after " + fe.Param()
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// nonNegative flags negative amounts; validator has no decimal support.
func (f *form) nonNegative(key string, d decimal.Decimal) {
	if d.IsNegative() {
		f.errs.add(key, "must not be negative")
	}
}
