package testutil

import (
	"net/http"

	"verigate/pkg/requestcontext"
)

// WithClient sets client IP and User-Agent, as the metadata middleware would.
func WithClient(req *http.Request, ip, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, userAgent))
}
