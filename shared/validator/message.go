package validator

import (
	"errors"
	"reflect"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required":    "{field} is required",
	"gte":         "{field} must be greater than or equal to {param}",
	"lte":         "{field} must be less than or equal to {param}",
	"oneof":       "{field} must be one of {param}",
	"max":         "{field} must be less than or equal to {param}",
	"min":         "{field} must be greater than or equal to {param}",
	"email":       "{field} must be a valid email address",
	"e164":        "{field} must be a phone number in international format, e.g. +14155550123",
	"uuid":        "{field} must be a valid UUID",
	"alphanum":    "{field} must contain only letters and digits",
	"nefield":     "{field} must differ from {param}",
	"date":        "{field} must be a date formatted as YYYY-MM-DD",
	"clock":       "{field} must be a time formatted as HH:MM",
	"mimetypes":   "{field} must be one of {param}",
	"maxfilesize": "{field} must not exceed {param} MB",
}

// length limits read better in characters or items than as bare numbers
var lengthMessages = map[string]string{
	"max": "{field} must be at most {param} {unit}",
	"min": "{field} must be at least {param} {unit}",
}

func template(fieldErr val.FieldError) string {
	if msg, ok := lengthMessages[fieldErr.Tag()]; ok {
		switch fieldErr.Kind() {
		case reflect.String:
			return strings.ReplaceAll(msg, "{unit}", "characters")
		case reflect.Slice, reflect.Array, reflect.Map:
			return strings.ReplaceAll(msg, "{unit}", "items")
		}
	}

	return messages[fieldErr.Tag()]
}

// message renders the first failed rule of err for API clients.
func message(err error) string {
	var fieldErrs val.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	for _, fieldErr := range fieldErrs {
		msg := template(fieldErr)
		if msg == "" {
			continue
		}

		return strings.NewReplacer("{field}", fieldErr.Field(), "{param}", fieldErr.Param()).Replace(msg)
	}

	return fieldErrs.Error()
}
