// Package httputil holds the JSON response and request helpers shared by the
// module handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "verigate/pkg/domain-errors"
)

type errorMapping struct {
	status int
	wire   string
}

// errorTable maps each domain code to its HTTP status and the value of the
// "error" field. Codes missing here render as internal_error.
var errorTable = map[dErrors.Code]errorMapping{
	dErrors.CodeNotFound:     {http.StatusNotFound, "not_found"},
	dErrors.CodeBadRequest:   {http.StatusBadRequest, "bad_request"},
	dErrors.CodeInvalidInput: {http.StatusBadRequest, "bad_request"},
	dErrors.CodeValidation:   {http.StatusBadRequest, "validation_error"},
	dErrors.CodeConflict:     {http.StatusConflict, "conflict"},
	dErrors.CodeUnauthorized: {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeForbidden:    {http.StatusForbidden, "forbidden"},
	dErrors.CodeRateLimited:  {http.StatusTooManyRequests, "rate_limited"},
	dErrors.CodeTimeout:      {http.StatusGatewayTimeout, "timeout"},
	dErrors.CodeUnavailable:  {http.StatusServiceUnavailable, "unavailable"},
	dErrors.CodeTooLarge:     {http.StatusRequestEntityTooLarge, "request_too_large"},
}

var internalMapping = errorMapping{http.StatusInternalServerError, "internal_error"}

// ErrorResponse is the envelope every failed request receives.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError renders err as an ErrorResponse. Only domain errors expose their
// message; anything else is reported as a bare internal_error.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		WriteJSON(w, internalMapping.status, ErrorResponse{Error: internalMapping.wire})
		return
	}
	m := mappingFor(de.Code)
	WriteJSON(w, m.status, ErrorResponse{Error: m.wire, Description: de.Message})
}

// StatusFor returns the HTTP status WriteError would use for err.
func StatusFor(err error) int {
	return mappingFor(dErrors.CodeOf(err)).status
}

func mappingFor(code dErrors.Code) errorMapping {
	if m, ok := errorTable[code]; ok {
		return m
	}
	return internalMapping
}
