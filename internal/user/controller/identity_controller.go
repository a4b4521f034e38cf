package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	"pasmino/internal/dto"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/httpx"
)

type UserSyncer interface {
	Sync(ctx context.Context, clerkID, email, name string) (*domain.User, error)
}

type IdentityController struct {
	users  UserSyncer
	secret string
	logger *zap.Logger
}

// NewIdentityController serves the identity webhook. Calls must present the
// shared secret as a bearer token; with no secret configured every call is
// rejected.
func NewIdentityController(users UserSyncer, secret string, logger *zap.Logger) *IdentityController {
	return &IdentityController{users: users, secret: secret, logger: logger}
}

// Sync handles the identity provider's user.created/user.updated webhook.
func (c *IdentityController) Sync(w http.ResponseWriter, r *http.Request) {
	if !httpx.BearerMatches(r, c.secret) {
		if c.secret == "" {
			c.logger.Warn("identity webhook called but AUTH_WEBHOOK_SECRET is not set",
				zap.String("traceId", httpx.TraceID(r.Context())))
		}
		httpx.WriteError(w, r, c.logger, apperrors.NewUnauthorizedError("invalid webhook secret"))
		return
	}

	var req dto.IdentitySyncRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	user, err := c.users.Sync(r.Context(), req.ClerkID, req.Email, req.Name)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewUserDTO(*user))
}
