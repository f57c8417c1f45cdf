package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	operatorIDKey ctxKey = "operatorID"
	isRootKey     ctxKey = "isRoot"
)

// GetOperatorID returns the authenticated operator ID from context.
// Returns 401 error if the request carried no valid token.
func GetOperatorID(ctx context.Context) (string, error) {
	operatorID, ok := ctx.Value(operatorIDKey).(string)
	if !ok || operatorID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return operatorID, nil
}

// RequireRoot validates the operator is authenticated and holds the root flag.
func RequireRoot(ctx context.Context) (string, error) {
	operatorID, err := GetOperatorID(ctx)
	if err != nil {
		return "", err
	}
	if isRoot, ok := ctx.Value(isRootKey).(bool); !ok || !isRoot {
		return "", domainerrors.Forbidden("Root access required")
	}
	return operatorID, nil
}

func setOperator(ctx context.Context, operatorID string, isRoot bool) context.Context {
	ctx = context.WithValue(ctx, operatorIDKey, operatorID)
	return context.WithValue(ctx, isRootKey, isRoot)
}

// authMiddleware validates Bearer tokens and stores the operator in context.
// If no token is present or it is invalid, the request continues without an
// operator; handlers reject it via GetOperatorID when authentication is
// required.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.VerifyToken(authHeader[7:])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := setOperator(r.Context(), claims.OperatorID, claims.IsRoot)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
