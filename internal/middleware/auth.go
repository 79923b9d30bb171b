package middleware

import (
	"context"
	"net/http"
	"strings"

	"store-rating/internal/apperrors"
	"store-rating/internal/models"
	"store-rating/internal/services"

	"github.com/rs/zerolog"
)

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID int
	Role   models.UserRole
}

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Authentication requires "Authorization: Bearer <token>" and attaches the
// decoded identity. Missing or malformed headers are Unauthenticated; a token
// that fails verification is InvalidToken.
func Authentication(tokens TokenValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondWithError(w, http.StatusUnauthorized, string(apperrors.KindUnauthenticated), "No token, authorization denied")
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Invalid token")
				respondWithError(w, http.StatusUnauthorized, string(apperrors.KindInvalidToken), "Token is not valid")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, Role: models.UserRole(claims.Role)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireRole lets the request through only when the attached identity holds
// one of the allowed roles.
func RequireRole(allowedRoles ...models.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[models.UserRole]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = struct{}{}
	}
	message := deniedMessage(allowedRoles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				respondWithError(w, http.StatusForbidden, string(apperrors.KindForbidden), "User role not found")
				return
			}

			if _, ok := allowed[id.Role]; !ok {
				respondWithError(w, http.StatusForbidden, string(apperrors.KindForbidden), message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deniedMessage(roles []models.UserRole) string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		switch role {
		case models.RoleAdmin:
			names = append(names, "Admin")
		case models.RoleStoreOwner:
			names = append(names, "Store Owner")
		case models.RoleUser:
			names = append(names, "User")
		default:
			names = append(names, string(role))
		}
	}
	return "Access denied. " + strings.Join(names, " or ") + " role required."
}
