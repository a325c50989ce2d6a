package httpapi

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
)

// requireAdmin guards the management API with a bearer token checked
// against a bcrypt hash. An empty hash leaves the API open.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := checkAdminToken(s.adminTokenHash, r); err != nil {
			s.respondAppError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkAdminToken returns an Unauthorized error unless r carries the token
// matching hash.
func checkAdminToken(hash string, r *http.Request) error {
	if hash == "" {
		return nil
	}
	token := extractToken(r)
	if token == "" {
		return apperr.Unauthorized("missing bearer token")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		return apperr.Unauthorized("invalid bearer token")
	}
	return nil
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

// HashToken returns the bcrypt hash to configure for token.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
