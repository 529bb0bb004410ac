package usecase

import (
	"context"
	"errors"
	"strings"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"
	"aula-backend/pkg/utils"
)

type userUsecase struct {
	userRepo domain.UserRepository
	log      *logger.Logger
}

func NewUserUsecase(ur domain.UserRepository, log *logger.Logger) domain.UserUsecase {
	return &userUsecase{userRepo: ur, log: log}
}

func (uc *userUsecase) ListUsers(ctx context.Context) ([]domain.User, error) {
	return uc.userRepo.GetAll(ctx)
}

func (uc *userUsecase) CreateUser(ctx context.Context, input domain.UserInput) (*domain.User, error) {
	user := &domain.User{Role: domain.RoleStudent, Active: true}
	if input.Email != nil {
		user.Email = utils.NormalizeEmail(*input.Email)
	}
	if v, ok := trimmed(input.FirstName); ok {
		user.FirstName = v
	}
	if v, ok := trimmed(input.LastName); ok {
		user.LastName = v
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := validateAccount(user.Email, user.FirstName, user.LastName); err != nil {
		return nil, err
	}
	if input.Password == nil {
		return nil, domain.Validation("a password is required")
	}
	if err := setPassword(user, *input.Password); err != nil {
		return nil, err
	}
	if err := createUser(ctx, uc.userRepo, user); err != nil {
		return nil, err
	}
	// the column default turns a false on insert into true
	if !user.Active {
		if err := uc.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	uc.log.Info("user created by admin", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (uc *userUsecase) UpdateUser(ctx context.Context, id uint, input domain.UserInput) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := utils.NormalizeEmail(*input.Email)
		if email != user.Email {
			if existing, err := uc.userRepo.GetByEmail(ctx, email); err == nil && existing.ID != user.ID {
				return nil, domain.Conflict("the email is already registered")
			}
			user.Email = email
		}
	}
	if v, ok := trimmed(input.FirstName); ok {
		user.FirstName = v
	}
	if v, ok := trimmed(input.LastName); ok {
		user.LastName = v
	}
	if err := validateAccount(user.Email, user.FirstName, user.LastName); err != nil {
		return nil, err
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if input.Password != nil && strings.TrimSpace(*input.Password) != "" {
		if err := setPassword(user, *input.Password); err != nil {
			return nil, err
		}
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Conflict("the email is already registered")
		}
		return nil, err
	}
	return user, nil
}

// DeactivateUser is a soft delete; the account keeps its enrollments and
// diplomas but can no longer log in.
func (uc *userUsecase) DeactivateUser(ctx context.Context, id uint) error {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.Active {
		return nil
	}
	user.Active = false
	return uc.userRepo.Update(ctx, user)
}
