package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/subtitle-study/app/internal/models"
)

// MaxBodySize caps request bodies at maxBytes. A declared Content-Length over
// the cap is answered with 413 before the handler runs; undeclared bodies are
// cut off while reading.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				json.NewEncoder(w).Encode(models.ErrorBody{
					Code:    http.StatusRequestEntityTooLarge,
					Message: "request body too large",
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
