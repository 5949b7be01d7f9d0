package api

import (
	"errors"
	"net/http"

	"github.com/BBKML/BaibebaloProjets-sub007/services"
)

// ErrorResponse is the uniform error body. Class lets clients branch
// without parsing the message: a state_conflict invites a refetch-and-retry,
// a validation error does not.
type ErrorResponse struct {
	Class   string `json:"class"`
	Message string `json:"message"`
}

// StatusForError maps an engine error to an HTTP status and error class.
// External-service failures never reach this path; they are logged inside
// the engines and the owning request still succeeds.
func StatusForError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity, ErrorResponse{Class: "validation", Message: err.Error()}
	case errors.Is(err, services.ErrStateConflict):
		return http.StatusConflict, ErrorResponse{Class: "state_conflict", Message: err.Error()}
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden, ErrorResponse{Class: "unauthorized", Message: err.Error()}
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Class: "not_found", Message: err.Error()}
	case errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusConflict, ErrorResponse{Class: "insufficient_funds", Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{Class: "internal", Message: "internal error"}
}
