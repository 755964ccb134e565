package middleware

import (
	"net/http"
)

// AdminChecker reports whether a request belongs to the logged-in admin
type AdminChecker interface {
	IsAdmin(r *http.Request) bool
}

// RequireAdmin redirects requests without an admin session to loginPath
func RequireAdmin(checker AdminChecker, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !checker.IsAdmin(r) {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminJSON answers 401 with a JSON error for requests without an admin session
func RequireAdminJSON(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !checker.IsAdmin(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
