package service

import (
	"errors"
	"reflect"
	"strings"

	"gearshare-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so messages match the request payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of v and converts failures into
// domain.ValidationErrors.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &domain.ValidationError{Message: err.Error()}
	}
	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &domain.ValidationError{Field: fieldPath(fe), Message: getMessage(fe)})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func getMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "should have value in: " + fe.Param()
	case "gtfield":
		return "must be after " + fe.Param()
	case "lte", "max":
		if isString {
			return "length should be less or equal than " + fe.Param()
		}
		if fe.Kind() == reflect.Slice {
			return "should contain at most " + fe.Param() + " items"
		}
		return "should be less or equal than " + fe.Param()
	case "gte", "min":
		if isString {
			return "length should be greater or equal than " + fe.Param()
		}
		if fe.Kind() == reflect.Slice {
			return "should contain at least " + fe.Param() + " items"
		}
		return "should be greater or equal than " + fe.Param()
	}
	return "incorrect value passed"
}
