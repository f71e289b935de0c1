package transport

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/muhammadheryan/storefront/application/user"
	"github.com/muhammadheryan/storefront/constant"
	utilsContext "github.com/muhammadheryan/storefront/utils/context"
	"github.com/muhammadheryan/storefront/utils/errors"
)

// AuthMiddleware returns a middleware that validates JWT sessions using UserApp.
// It allows public endpoints (catalog reads, /login, /register, /swagger/) without token.
func AuthMiddleware(userApp user.UserApp) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRequest(r) {
				next.ServeHTTP(w, r)
				return
			}

			// Check Authorization header
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
				return
			}
			token := strings.TrimPrefix(auth, "Bearer ")

			// Validate token via UserApp
			userID, err := userApp.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
				return
			}

			next.ServeHTTP(w, r.WithContext(utilsContext.WithUserID(r.Context(), userID)))
		})
	}
}

// AdminMiddleware only lets catalog owners through. It must run behind
// AuthMiddleware.
func AdminMiddleware(userApp user.UserApp) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utilsContext.GetUserID(r.Context())
			if !ok {
				writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
				return
			}

			u, err := userApp.GetUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, constant.ErrNotFound) {
					writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
					return
				}
				writeError(w, err)
				return
			}
			if !u.IsAdmin {
				writeError(w, errors.SetCustomError(constant.ErrForbidden))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isPublicRequest defines which requests need no token
func isPublicRequest(r *http.Request) bool {
	path := r.URL.Path
	if strings.HasPrefix(path, "/swagger/") || strings.HasPrefix(path, "/internal/") {
		return true
	}
	if path == "/login" || path == "/register" {
		return true
	}
	if r.Method == http.MethodGet && (path == "/api/products" || strings.HasPrefix(path, "/api/products/")) {
		return true
	}

	return false
}
