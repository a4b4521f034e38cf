package service

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
)

type Repository interface {
	FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
	Upsert(ctx context.Context, u domain.User) (*domain.User, error)
}

type UserService struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	return s.repo.FindByClerkID(ctx, clerkID)
}

// Sync mirrors an identity-provider user into the local table.
func (s *UserService) Sync(ctx context.Context, clerkID, email, name string) (*domain.User, error) {
	clerkID = strings.TrimSpace(clerkID)
	email = strings.TrimSpace(email)

	var details []apperrors.ValidationDetail
	if clerkID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "clerkId", Message: "clerkId is required"})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details = append(details, apperrors.ValidationDetail{Field: "email", Message: "email must be a valid address"})
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	user, err := s.repo.Upsert(ctx, domain.User{
		ClerkID: clerkID,
		Email:   email,
		Name:    strings.TrimSpace(name),
	})
	if err != nil {
		s.logger.Error("failed to sync user", zap.String("clerkId", clerkID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("user synced", zap.String("clerkId", clerkID), zap.Int64("userId", user.ID))
	return user, nil
}
