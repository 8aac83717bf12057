package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Numeric tags (gt, gte) on decimal fields compare the float value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("visit", func(fl validator.FieldLevel) bool {
		return VisitStatus(fl.Field().String()).Valid()
	})

	return v
}

// ValidationError lists the fields of Record that failed validation,
// mapped to the failing rule.
type ValidationError struct {
	Record string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + e.Fields[k]
	}
	return fmt.Sprintf("invalid %s: %s", e.Record, strings.Join(parts, ", "))
}

// Validate checks v against its struct tags.
// Returns a *ValidationError when one or more fields are rejected.
func Validate(record string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", record, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Drop the struct name so nested fields read as lines[0].order_qty.
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = fe.Tag()
	}
	return &ValidationError{Record: record, Fields: fields}
}
