package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. WriteTimeout sits above the request budget so
// the timeout middleware, not the server, decides when a request is late.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
