package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/msomdec/socialfeed/internal/domain"
)

const maxJSONBody = 1 << 20 // 1MB

// envelope is the body of every JSON response.
type envelope struct {
	Succeeded bool                `json:"succeeded"`
	Message   string              `json:"message"`
	Data      any                 `json:"data,omitempty"`
	Errors    []domain.FieldError `json:"errors,omitempty"`
	Stack     []string            `json:"stack,omitempty"`
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeSuccess sends a successful envelope.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Succeeded: true, Message: message, Data: data})
}

// writeError sends a failed envelope with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Message: message})
}

// readJSON decodes the request body into dst. An empty body leaves dst
// untouched.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body too large", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	return nil
}

// responder turns service errors into HTTP responses.
type responder struct {
	debug bool
}

// writeServiceError maps err onto the HTTP error taxonomy. Unexpected errors
// are logged and reported without detail unless debug is on.
func (rs responder) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)

	body := envelope{Message: message}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Errors = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	if rs.debug {
		body.Stack = errorChain(err)
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "You are not allowed to perform this action"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "An account with that email already exists"
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusBadRequest, userMessage(err, domain.ErrInvalidOperation)
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, userMessage(err, domain.ErrInvalidInput)
	case errors.Is(err, domain.ErrTransientIO):
		return http.StatusServiceUnavailable, "Service temporarily unavailable, please retry"
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway, "Could not deliver the message, please retry"
	default:
		return http.StatusInternalServerError, "An unexpected error occurred"
	}
}

// userMessage returns the detail that follows sentinel in err's message,
// e.g. "invalid input: cannot follow yourself" yields "cannot follow
// yourself". Wrapping prefixes added by services are dropped.
func userMessage(err, sentinel error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return "Validation failed"
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return sentinel.Error()
}

// errorChain lists the messages of err and everything it wraps.
func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				chain = append(chain, errorChain(e)...)
			}
			return chain
		default:
			err = nil
		}
	}
	return chain
}
