package handlers

import (
	"github.com/go-chi/chi/v5"

	"gw-price-converter/internal/api/middlew"
)

// RegisterRoutes mounts the public conversion API. The endpoint is served
// both at the root and under /api for the site's reverse proxy.
func RegisterRoutes(r chi.Router, conversion *ConversionHandler) {
	r.Get("/healthz", Health)

	r.Group(func(r chi.Router) {
		r.Use(middlew.CORS())

		r.Get("/currency/convert", conversion.Convert)
		r.Options("/currency/convert", middlew.Preflight)
		r.Get("/api/currency/convert", conversion.Convert)
		r.Options("/api/currency/convert", middlew.Preflight)
	})
}
