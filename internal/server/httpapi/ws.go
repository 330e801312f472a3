package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/csvbrowser/internal/server/notify"
)

// checkOrigin admits non-browser clients (no Origin header) and browsers
// from the configured CORS origins.
func (s *HTTPServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	s.logger.Warn(r.Context(), "websocket origin rejected", "origin", origin)
	return false
}

func (s *HTTPServer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Debug(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	notify.ServeConn(r.Context(), s.registry, conn, s.logger)
}
