package httpd

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"
)

type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required for the websocket upgrade.
func (r *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		r.status = http.StatusSwitchingProtocols
		return h.Hijack()
	}

	return nil, nil, fmt.Errorf("%T does not implement http.Hijacker", r.ResponseWriter)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		dt := time.Since(start).Round(time.Microsecond)

		switch {
		case rec.status >= 500:
			warnf("%-4v %v  %v  %v", r.Method, r.URL.Path, rec.status, dt)
		case s.debug:
			debugf("%-4v %v  %v  %v", r.Method, r.URL.Path, rec.status, dt)
		case r.URL.Path != "/health" && r.URL.Path != "/metrics":
			infof("%-4v %v  %v  %v", r.Method, r.URL.Path, rec.status, dt)
		}
	})
}
