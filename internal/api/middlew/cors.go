package middlew

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodOptions}
	corsHeaders = []string{"Content-Type"}
)

// CORS opens the conversion endpoint to any origin. Browser preflights are
// passed through to the route so that Preflight can answer them.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     corsMethods,
		AllowedHeaders:     corsHeaders,
		OptionsPassthrough: true,
	})
}

// Preflight answers OPTIONS with 204 and the full method and header lists
// the endpoint accepts, also for clients that omit Origin.
func Preflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(corsHeaders, ", "))
	w.WriteHeader(http.StatusNoContent)
}
