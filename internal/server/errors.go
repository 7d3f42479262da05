// Package server provides the HTTP surface of the profile service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mawps/profile-service/internal/repo"
	"github.com/mawps/profile-service/internal/schemas"
)

// ErrUnauthorized indicates a missing or undecodable bearer token
type ErrUnauthorized struct {
	Reason string
}

func (e *ErrUnauthorized) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

// ErrForbidden indicates the caller may not access the requested object
type ErrForbidden struct {
	Key string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("access denied: %s", e.Key)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		profileNotFound *repo.ErrProfileNotFound
		projectNotFound *repo.ErrProjectNotFound
		validation      *schemas.ValidationError
	)
	switch {
	case errors.As(err, &profileNotFound), errors.As(err, &projectNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	}

	switch err.(type) {
	case *ErrUnauthorized:
		return http.StatusUnauthorized
	case *ErrForbidden:
		return http.StatusForbidden
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
