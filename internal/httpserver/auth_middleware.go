package httpserver

import (
	"context"
	"log"
	"net/http"
	"strings"

	"matchlink/internal/domain"
	"matchlink/internal/security"
)

type contextKey string

const profileContextKey contextKey = "currentProfile"

// WithProfile returns a new context carrying the caller's profile.
func WithProfile(ctx context.Context, p *domain.Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, p)
}

// CurrentProfile extracts the caller's profile from context, if any.
func CurrentProfile(r *http.Request) *domain.Profile {
	if v := r.Context().Value(profileContextKey); v != nil {
		if p, ok := v.(*domain.Profile); ok {
			return p
		}
	}
	return nil
}

// AuthMiddleware validates the Bearer token and resolves the caller's
// profile through the profile directory.
func AuthMiddleware(tokens *security.TokenService, profiles domain.ProfileRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimSpace(authHeader[len("Bearer "):])

			userID, err := tokens.Parse(tokenStr)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			profile, err := profiles.GetByUserID(r.Context(), userID)
			if err != nil {
				log.Printf("AuthMiddleware: resolve profile for user %d: %v", userID, err)
				http.Error(w, "profile not found", http.StatusUnauthorized)
				return
			}
			if profile == nil {
				http.Error(w, "profile not found", http.StatusUnauthorized)
				return
			}

			ctx := WithProfile(r.Context(), profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
