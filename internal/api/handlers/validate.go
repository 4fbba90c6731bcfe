package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// requestError carries per-field messages back to the client
type requestError struct {
	details map[string]string
}

func (e *requestError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.details)
}

// decodeJSONBody decodes and validates a request body
func decodeJSONBody(r *http.Request, dest interface{}) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return &requestError{details: map[string]string{"body": err.Error()}}
	}

	if err := validate.Struct(dest); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return &requestError{details: map[string]string{"body": err.Error()}}
		}
		details := make(map[string]string, len(errs))
		for _, fe := range errs {
			details[fe.Field()] = validationMessage(fe)
		}
		return &requestError{details: details}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return fmt.Sprintf("must be a date formatted as %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

// parseQueryInt reads an optional integer query parameter within [min, max]
func parseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &requestError{details: map[string]string{key: "must be an integer"}}
	}
	if v < min || v > max {
		return 0, &requestError{details: map[string]string{key: fmt.Sprintf("must be between %d and %d", min, max)}}
	}
	return v, nil
}
