package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors allows origin, or every origin when it is empty.
func Cors(origin string) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	}
	if origin == "" {
		options.AllowOriginFunc = func(string) bool { return true }
	} else {
		options.AllowedOrigins = []string{origin}
	}
	return cors.New(options).Handler
}
