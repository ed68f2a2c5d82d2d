package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "pathway/pkg/domain"
	"pathway/pkg/requestcontext"
)

// TokenValidator validates bearer tokens presented by the collection layer.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims are the claims the engine cares about. StudentRef is the
// pseudonymous ref the collection layer minted for this session.
type TokenClaims struct {
	StudentRef string
	ClientID   string
}

// RequireAuth rejects requests without a valid bearer token and puts the
// authenticated student ref into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				unauthorized(w)
				return
			}

			if claims.StudentRef != "" {
				if ref, err := id.ParseStudentRef(claims.StudentRef); err == nil {
					ctx = requestcontext.WithStudentRef(ctx, ref)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
