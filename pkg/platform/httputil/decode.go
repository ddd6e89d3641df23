package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/requestcontext"
)

// Preparer hooks run in this order after decoding; each is optional.
type (
	Sanitizable  interface{ Sanitize() }
	Normalizable interface{ Normalize() }
	Validatable  interface{ Validate() error }
)

// DecodeJSON reads exactly one JSON value from the body into T. Bodies cut by
// http.MaxBytesReader map to 413; anything else unreadable maps to 400.
func DecodeJSON[T any](r *http.Request) (*T, error) {
	dec := json.NewDecoder(r.Body)
	var req T
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeTooLarge, "request body too large")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body must hold a single JSON object")
	}
	return &req, nil
}

// Prepare runs the request hooks. Plain validation errors become CodeValidation.
func Prepare(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	v, ok := req.(Validatable)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.New(dErrors.CodeValidation, err.Error())
}

// DecodeAndPrepare decodes and prepares T, writing the error response itself
// on failure.
//
//	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, err := DecodeJSON[T](r)
	if err == nil {
		err = Prepare(req)
	}
	if err != nil {
		ctx := r.Context()
		logger.WarnContext(ctx, "rejected request body",
			"request_id", requestcontext.RequestID(ctx),
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
