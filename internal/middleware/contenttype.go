package middleware

import (
	"mime"
	"net/http"
)

// ContentType rejects POST/PATCH/PUT requests whose Content-Type is not one of allowed
func ContentType(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				http.Error(w, "Content-Type header is required", http.StatusBadRequest)
				return
			}

			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil {
				http.Error(w, "Malformed Content-Type header", http.StatusBadRequest)
				return
			}
			for _, a := range allowed {
				if mediaType == a {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Unsupported Content-Type", http.StatusUnsupportedMediaType)
		})
	}
}
