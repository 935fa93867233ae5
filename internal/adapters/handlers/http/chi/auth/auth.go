package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller resolved from a bearer token
type Identity struct {
	TenantID   string
	UploaderID string
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity stored by RequireAuth
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// RequireAuth validates an HS256 bearer token and injects the tenant_id and sub claims
// into the request context. issuer is checked only when set.
func RequireAuth(secret string, issuer string, logger *slog.Logger) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("rejected bearer token", "error", err)
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			tenantID, _ := claims["tenant_id"].(string)
			if tenantID == "" {
				http.Error(w, "token has no tenant", http.StatusUnauthorized)
				return
			}
			subject, _ := claims.GetSubject()

			ctx := WithIdentity(r.Context(), Identity{TenantID: tenantID, UploaderID: subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
