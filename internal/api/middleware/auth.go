package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wisal-aid/coupon-service/internal/apperr"
)

// Staff roles carried in tokens issued by the institution auth service. This
// service only verifies tokens; it never issues them.
const (
	RoleAdmin       = "ADMIN"
	RoleDistributor = "DISTRIBUTOR"
	RoleDeliverer   = "DELIVERER"
	RolePublisher   = "PUBLISHER"
)

type contextKey string

const (
	ctxKeySubject contextKey = "subject"
	ctxKeyRole    contextKey = "role"
)

// Claims is the token payload shared with the auth service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores subject and role in the request
// context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, r, apperr.New(apperr.Unauthorized, "Authorization header required"))
				return
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				writeAuthError(w, r, apperr.New(apperr.Unauthorized, "Bearer token required"))
				return
			}

			token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				writeAuthError(w, r, apperr.New(apperr.Unauthorized, "Invalid token"))
				return
			}

			claims, ok := token.Claims.(*Claims)
			if !ok {
				writeAuthError(w, r, apperr.New(apperr.Unauthorized, "Invalid token claims"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ctxKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects requests whose token role is not in the allowed set.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(ctxKeyRole).(string)
			if _, ok := allowed[role]; !ok {
				writeAuthError(w, r, apperr.New(apperr.Forbidden, "Insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Subject returns the token subject stored by Auth, if any.
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(ctxKeySubject).(string)
	return sub
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	body := apperr.EnvelopeFor(err, r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)
	_ = json.NewEncoder(w).Encode(body)
}
