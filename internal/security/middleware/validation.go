package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// ValidateJSONContentType middleware ensures POST/PUT requests carry JSON,
// or multipart form data on upload routes.
func ValidateJSONContentType(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only validate POST, PUT, PATCH requests
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			// Allow requests without body
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if strings.Contains(contentType, "application/json") {
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(contentType, "multipart/form-data") && isUploadPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("invalid content type",
				slog.String("path", r.URL.Path),
				slog.String("content_type", contentType),
				slog.String("method", r.Method),
			)
			writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		})
	}
}

func isUploadPath(path string) bool {
	return strings.HasSuffix(path, "/profile/image") ||
		strings.HasSuffix(path, "/photos") ||
		strings.HasSuffix(path, "/documents")
}

// SanitizeInputs middleware rejects angle brackets in query params and
// traversal patterns in the path. Quotes are allowed so filters such as
// city=Coeur d'Alene pass; queries are parameterised.
func SanitizeInputs(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dangerousChars := []string{"<", ">"}
			for key, values := range r.URL.Query() {
				for _, val := range values {
					for _, char := range dangerousChars {
						if strings.Contains(val, char) {
							log.Warn("suspicious input detected",
								slog.String("path", r.URL.Path),
								slog.String("param", key),
								slog.String("pattern", char),
							)
							writeError(w, http.StatusBadRequest, "Invalid input: dangerous characters detected")
							return
						}
					}
				}
			}

			if strings.Contains(r.URL.Path, "..") || strings.Contains(r.URL.Path, "//") {
				log.Warn("suspicious path pattern detected",
					slog.String("path", r.URL.Path),
				)
				writeError(w, http.StatusBadRequest, "Invalid path")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
