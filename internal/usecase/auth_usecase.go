package usecase

import (
	"context"
	"go-resume-backend/internal/domain"
	"go-resume-backend/pkg/apperror"

	"github.com/cockroachdb/errors"
)

type authUsecase struct {
	userRepo domain.UserRepository
}

func NewAuthUsecase(userRepo domain.UserRepository) domain.AuthUsecase {
	return &authUsecase{userRepo: userRepo}
}

// GetCurrentUser loads the token's user. The role always comes from the
// database, never from token claims.
func (u *authUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Unauthorized("User not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user.Role != domain.RoleApplicant && user.Role != domain.RoleRecruiter {
		return nil, apperror.Unauthorized("User has no valid role")
	}
	return user, nil
}
