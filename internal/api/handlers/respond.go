package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/techinsight/techinsight-be/internal/services"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of requests that return no resource.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrDuplicateEmail):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Server errors are logged with their cause
// and answered with msg only.
func fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	reqID := middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg(msg)
		respond(w, r, status, ErrorResponse{Error: msg})
		return
	}
	log.Warn().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Int("status", status).Msg(msg)
	respond(w, r, status, ErrorResponse{Error: err.Error()})
}

// decode reads a JSON body into v. A value of the wrong type is reported as
// services.ErrInvalidParameter, anything else unreadable as services.ErrValidation.
func decode(r *http.Request, v interface{}) error {
	err := render.DecodeJSON(r.Body, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return fmt.Errorf("%w: %s must be %s", services.ErrInvalidParameter, typeErr.Field, typeErr.Type)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: request body is empty", services.ErrValidation)
	default:
		return fmt.Errorf("%w: invalid request body", services.ErrValidation)
	}
}

// pathID returns the {id} URL parameter in the canonical form the store keeps.
// Values that are not UUIDs are returned unchanged for the service to reject.
func pathID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}
