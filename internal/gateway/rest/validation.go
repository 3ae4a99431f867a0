package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/gemexbase/gemex/internal/backend"
)

// validate is the singleton validator instance used across all handlers.
var validate = validator.New()

// ValidationError wraps validation errors with user-friendly messages.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors contains multiple validation errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, e := range v.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(msgs, "; ")
}

// translateValidationError converts a validator.FieldError to a user-friendly message.
func translateValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "required_without":
		return fmt.Sprintf("Required when %s is missing", strings.ToLower(fe.Param()))
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("Failed validation: %s", fe.Tag())
	}
}

// formatValidationErrors converts validator errors to ValidationErrors.
func formatValidationErrors(err error) ValidationErrors {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ValidationErrors{
			Errors: []ValidationError{{Field: "unknown", Message: err.Error()}},
		}
	}

	var valErrors []ValidationError
	for _, fe := range ve {
		valErrors = append(valErrors, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: translateValidationError(fe),
		})
	}
	return ValidationErrors{Errors: valErrors}
}

// decodeAndValidate decodes a JSON request body and validates it.
func decodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, formatValidationErrors(err)
	}
	return &req, nil
}

// writeBadRequest answers 400, listing field errors when validation failed.
func writeBadRequest(w http.ResponseWriter, err error, message string) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ve)
		return
	}
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// pageParams are the query parameters that select a result page. They are
// never part of a filter state.
type pageParams struct {
	Page     int    `schema:"page" validate:"gte=0"`
	PageSize int    `schema:"page_size" validate:"gte=0"`
	Ordering string `schema:"ordering" validate:"max=64"`
}

// decodePagination reads the page parameters of q, clamped to limits.
func (h *Handler) decodePagination(q url.Values) (backend.Pagination, error) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	var p pageParams
	if err := decoder.Decode(&p, q); err != nil {
		return backend.Pagination{}, fmt.Errorf("invalid pagination: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return backend.Pagination{}, formatValidationErrors(err)
	}

	if p.Page == 0 {
		p.Page = 1
	}
	switch {
	case p.PageSize == 0:
		p.PageSize = h.limits.DefaultPageSize
	case h.limits.MaxPageSize > 0 && p.PageSize > h.limits.MaxPageSize:
		p.PageSize = h.limits.MaxPageSize
	}
	return backend.Pagination{Page: p.Page, PageSize: p.PageSize, Ordering: p.Ordering}, nil
}
