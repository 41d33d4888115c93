package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"portal/internal/domain/accesscontrol"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Form structs name their fields after the HTML inputs.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	Validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := accesscontrol.ParseRole(fl.Field().String())
		return err == nil
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	type envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}

	return writeJSON(w, status, &envelope{
		Success: false,
		Message: message,
		Status:  status,
	})
}

// fieldErrors maps validator failures to a message per form input.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() != reflect.String {
			return "Must be at least " + fe.Param() + "."
		}
		return "Must be at least " + fe.Param() + " characters."
	case "max":
		if fe.Kind() != reflect.String {
			return "Must be at most " + fe.Param() + "."
		}
		return "Must be at most " + fe.Param() + " characters."
	case "ne":
		return "Must not be " + fe.Param() + "."
	case "eqfield":
		return "Passwords do not match."
	case "uuid":
		return "Choose a valid option."
	case "role":
		return "Choose a known role."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	}
	return "Invalid value."
}
