package usecase

import (
	"context"
	"errors"
	"strings"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"
	"aula-backend/pkg/utils"

	"github.com/go-playground/validator/v10"
)

const minPasswordLength = 6

// accountRules applies the same email rule as the request binding, so seeded
// and admin-created accounts are held to it too.
var accountRules = validator.New()

type authUsecase struct {
	userRepo domain.UserRepository
	jwt      *utils.JWTManager
	log      *logger.Logger
}

func NewAuthUsecase(ur domain.UserRepository, jwt *utils.JWTManager, log *logger.Logger) domain.AuthUsecase {
	return &authUsecase{userRepo: ur, jwt: jwt, log: log}
}

func (uc *authUsecase) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
	user := &domain.User{
		Email:     utils.NormalizeEmail(input.Email),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      domain.RoleStudent,
		Active:    true,
	}
	if err := validateAccount(user.Email, user.FirstName, user.LastName); err != nil {
		return nil, err
	}
	if err := setPassword(user, input.Password); err != nil {
		return nil, err
	}
	if err := createUser(ctx, uc.userRepo, user); err != nil {
		return nil, err
	}

	uc.log.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login never says which of email or password was wrong.
func (uc *authUsecase) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return "", nil, domain.Unauthorized("invalid credentials")
		}
		return "", nil, err
	}
	if !user.Active || !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, domain.Unauthorized("invalid credentials")
	}

	if err := uc.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		uc.log.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}

	token, err := uc.jwt.Generate(user.ID, string(user.Role))
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (uc *authUsecase) GetProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *authUsecase) UpdateProfile(ctx context.Context, userID uint, input domain.ProfileInput) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v, ok := trimmed(input.FirstName); ok {
		if v == "" {
			return nil, domain.Validation("nombre cannot be empty")
		}
		user.FirstName = v
	}
	if v, ok := trimmed(input.LastName); ok {
		if v == "" {
			return nil, domain.Validation("apellido cannot be empty")
		}
		user.LastName = v
	}
	if v, ok := trimmed(input.Photo); ok && v != "" {
		user.Photo = v
	}
	if input.Password != nil && *input.Password != "" {
		if err := setPassword(user, *input.Password); err != nil {
			return nil, err
		}
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ========== SHARED ACCOUNT RULES ==========

func validateAccount(email, firstName, lastName string) error {
	if err := accountRules.Var(email, "required,email"); err != nil {
		return domain.Validation("a valid email is required")
	}
	if firstName == "" || lastName == "" {
		return domain.Validation("nombre and apellido are required")
	}
	return nil
}

func setPassword(user *domain.User, password string) error {
	if len(password) < minPasswordLength {
		return domain.Validation("the password must have at least %d characters", minPasswordLength)
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	user.Password = hashed
	return nil
}

func createUser(ctx context.Context, repo domain.UserRepository, user *domain.User) error {
	if existing, err := repo.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return domain.Conflict("the email is already registered")
	}
	if err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.Conflict("the email is already registered")
		}
		return err
	}
	return nil
}
