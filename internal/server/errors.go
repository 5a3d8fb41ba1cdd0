package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/interview-trainer/internal/interview"
	"github.com/spigell/interview-trainer/internal/storage"
)

// ErrBadRequest marks malformed request bodies and path values.
var ErrBadRequest = errors.New("bad request")

// HTTPStatus returns the HTTP status code for an error.
func HTTPStatus(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, interview.ErrInvalidRequest),
		errors.Is(err, storage.ErrInvalidID),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
