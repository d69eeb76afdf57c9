package security

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
)

// CORS builds the gateway's CORS middleware per §4.6's policy: an
// explicit origin allowlist (never "*"), a restricted method and header
// set, credentials allowed, and a 1-hour preflight cache.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           int(time.Hour.Seconds()),
	})
}
