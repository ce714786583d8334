package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MikhailRaia/shortlinks/internal/auth"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/rs/zerolog/log"
)

type contextKey string

// PrincipalKey is the context key used to store the authenticated principal.
const PrincipalKey contextKey = "principal"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthMiddleware builds the request principal from an Authorization: Bearer header.
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates an AuthMiddleware with the provided token validator.
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

// Authenticate attaches the principal when a valid token is present and
// otherwise lets the request through anonymously.
func (a *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.principal(r)
		if err != nil {
			log.Debug().Err(err).Msg("Ignoring invalid bearer token on public route")
			next.ServeHTTP(w, r)
			return
		}
		if principal.ID == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireAuth rejects requests without a valid bearer token with 401.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.principal(r)
		if err != nil || principal.ID == "" {
			msg := "authentication required"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "token expired"
			} else if err != nil {
				msg = "invalid token"
			}
			writeJSONError(w, http.StatusUnauthorized, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireRole rejects authenticated callers lacking role with 403.
// It must run after RequireAuth.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if principal.Role != role {
				writeJSONError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// principal returns a zero Principal and nil error when no token is sent.
func (a *AuthMiddleware) principal(r *http.Request) (model.Principal, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return model.Principal{}, nil
	}

	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return model.Principal{}, err
	}

	return claims.Principal(), nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext extracts the authenticated principal from context.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(model.Principal)
	return p, ok && p.ID != ""
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(model.ErrorResponse{Message: message}); err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}
