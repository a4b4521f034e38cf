package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/httpx"
)

type userKey struct{}

type UserFinder interface {
	FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
}

// IsAdmin is the single admin capability check.
func IsAdmin(user *domain.User) bool {
	return user != nil && user.Role == domain.RoleAdmin
}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(*domain.User)
	return user, ok && user != nil
}

type Middleware struct {
	users  UserFinder
	header string
	logger *zap.Logger
}

func NewMiddleware(users UserFinder, header string, logger *zap.Logger) *Middleware {
	return &Middleware{users: users, header: header, logger: logger}
}

// Authenticate resolves the upstream-verified identity header to a synced user.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clerkID := strings.TrimSpace(r.Header.Get(m.header))
		if clerkID == "" {
			httpx.WriteError(w, r, m.logger, apperrors.NewUnauthorizedError("missing identity"))
			return
		}

		user, err := m.users.FindByClerkID(r.Context(), clerkID)
		if err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok {
				m.logger.Warn("identity not synced", zap.String("clerkId", clerkID))
				httpx.WriteError(w, r, m.logger, apperrors.NewUnauthorizedError("unknown identity"))
				return
			}
			httpx.WriteError(w, r, m.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin must run after Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, r, m.logger, apperrors.NewUnauthorizedError("missing identity"))
			return
		}
		if !IsAdmin(user) {
			m.logger.Warn("admin access denied", zap.Int64("userId", user.ID), zap.String("path", r.URL.Path))
			httpx.WriteError(w, r, m.logger, apperrors.NewForbiddenError("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
