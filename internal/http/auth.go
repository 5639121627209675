package httpapi

import (
	"context"
	"net/http"
	"strings"

	"hostel-backend-go/internal/services"
)

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxUsername contextKey = "username"
	ctxRole     contextKey = "role"
)

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// WithAuth rejects requests without a valid access token and stores the
// caller's id, username and role in the request context.
func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeKind(w, services.ErrAuthRequired)
				return
			}
			claims, err := tokenService.ParseToken(tokenStr)
			if err != nil {
				writeKind(w, services.ServiceError{Kind: services.KindAuthRequired, Code: "AUTH_REQUIRED", Message: "Invalid or expired token"})
				return
			}
			userID, _ := claims.UserID()
			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxUsername, claims.Username)
			ctx = context.WithValue(ctx, ctxRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentUserID(r *http.Request) int64 {
	if value, ok := r.Context().Value(ctxUserID).(int64); ok {
		return value
	}
	return 0
}

func CurrentRole(r *http.Request) string {
	if value, ok := r.Context().Value(ctxRole).(string); ok {
		return value
	}
	return ""
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, role := range roles {
		allowed[strings.ToLower(role)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed[strings.ToLower(CurrentRole(r))] {
				next.ServeHTTP(w, r)
				return
			}
			writeKind(w, services.ErrInsufficientRole)
		})
	}
}

func writeKind(w http.ResponseWriter, err services.ServiceError) {
	WriteError(w, err.Kind.Status(), err.Code, err.Message)
}
