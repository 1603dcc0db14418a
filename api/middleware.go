package api

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
)

// Middleware wraps the router with request logging and the permissive CORS
// policy the frontend expects.
func Middleware(next http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	return handlers.LoggingHandler(os.Stdout, cors(next))
}
