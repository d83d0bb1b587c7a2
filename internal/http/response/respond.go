// Package response owns the uniform JSON envelope and the single place where
// domain errors are translated into status codes. Handlers signal typed
// errors; they never write failure responses themselves.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/pkg/logger"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform wrapper returned by every endpoint.
type Envelope struct {
	Status     string            `json:"status"`
	Data       interface{}       `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Results    *int64            `json:"results,omitempty"`
	TotalPages *int64            `json:"totalPages,omitempty"`
	Token      string            `json:"token,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Detail     string            `json:"detail,omitempty"`
}

// devMode controls whether unexpected errors reach the client verbatim.
// Production keeps the generic message; development gets the detail.
var devMode = false

func SetDevMode(enabled bool) {
	devMode = enabled
}

func JSON(w http.ResponseWriter, statusCode int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func Data(w http.ResponseWriter, statusCode int, data interface{}) {
	JSON(w, statusCode, Envelope{Status: StatusSuccess, Data: data})
}

// List writes a page of records with total-result metadata.
func List(w http.ResponseWriter, data interface{}, results, totalPages int64) {
	JSON(w, http.StatusOK, Envelope{
		Status:     StatusSuccess,
		Data:       data,
		Results:    &results,
		TotalPages: &totalPages,
	})
}

func Message(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, Envelope{Status: StatusSuccess, Message: message})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error translates a typed error into its status code and envelope.
// Operational errors keep their message; anything unrecognized is logged with
// full detail and reported generically unless running in development.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		JSON(w, http.StatusBadRequest, Envelope{
			Status:  StatusError,
			Message: verr.Error(),
			Errors:  verr.Fields,
		})
		return
	}

	var dup *domain.DuplicateError
	if errors.As(err, &dup) {
		JSON(w, http.StatusBadRequest, Envelope{Status: StatusError, Message: dup.Error()})
		return
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		logger.ErrorContext(r.Context(), "Upstream collaborator failed", "op", upstream.Op, "error", upstream.Err)
		JSON(w, http.StatusBadGateway, Envelope{Status: StatusError, Message: upstream.Error()})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		JSON(w, http.StatusNotFound, Envelope{Status: StatusError, Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenStale):
		JSON(w, http.StatusUnauthorized, Envelope{Status: StatusError, Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		JSON(w, http.StatusForbidden, Envelope{Status: StatusError, Message: err.Error()})
	default:
		logger.ErrorContext(r.Context(), "Unexpected error",
			"error", err, "method", r.Method, "path", r.URL.Path)
		envelope := Envelope{Status: StatusError, Message: "Something went very wrong!"}
		if devMode {
			envelope.Detail = err.Error()
		}
		JSON(w, http.StatusInternalServerError, envelope)
	}
}

func NotFoundRoute(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusNotFound, Envelope{
		Status:  StatusError,
		Message: "There is no path for " + r.URL.Path,
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, Envelope{Status: StatusError, Message: message})
}
