package dto

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)

// NewValidator returns a validator with the request-level custom tags registered. Field errors
// are named after the json or form key the client sent.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(wireName)
	_ = v.RegisterValidation("e164ish", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

func wireName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

// ValidationError builds a VALIDATION_ERROR carrying one detail per rejected field.
func ValidationError(err error, message string) *appErrors.Error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	if details := FieldErrors(err); len(details) > 0 {
		return appErrors.WithDetails(appErr, details)
	}
	return appErr
}

// FieldErrors extracts field level detail from validator and JSON decoding errors.
func FieldErrors(err error) []appErrors.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]appErrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, appErrors.FieldError{Field: fieldPath(fe), Rule: fe.Tag(), Param: fe.Param()})
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []appErrors.FieldError{{Field: typeErr.Field, Rule: "type", Param: typeErr.Type.String()}}
	}
	return nil
}

// fieldPath drops the root struct name so nested fields read like rules[0].weekday.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}
