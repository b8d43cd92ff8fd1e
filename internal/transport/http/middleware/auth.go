package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/vedran77/parley/internal/access"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Auth verifies the bearer token and binds the caller's identity to the
// request context.
func Auth(gate *access.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, r, "Missing or invalid token")
				return
			}

			userID, err := gate.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, r, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, errorBody{Error: errorDetail{Code: "UNAUTHORIZED", Message: msg}})
}
