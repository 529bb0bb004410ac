package repository

import (
	"context"
	"errors"
	"time"

	"aula-backend/internal/domain"

	"gorm.io/gorm"
)

// ========== USER REPOSITORY ==========

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepo{db}
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, userID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Update("last_login", now).Error
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []uint) ([]domain.User, error) {
	var users []domain.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepo) GetAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicate
	}
	return err
}

// ========== DIPLOMA REPOSITORY ==========

type diplomaRepo struct {
	db *gorm.DB
}

func NewDiplomaRepository(db *gorm.DB) domain.DiplomaRepository {
	return &diplomaRepo{db}
}

func (r *diplomaRepo) Create(ctx context.Context, diploma *domain.Diploma) error {
	err := r.db.WithContext(ctx).Create(diploma).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *diplomaRepo) GetByID(ctx context.Context, id uint) (*domain.Diploma, error) {
	var diploma domain.Diploma
	err := r.db.WithContext(ctx).First(&diploma, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("diploma not found")
	}
	if err != nil {
		return nil, err
	}
	return &diploma, nil
}

func (r *diplomaRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Diploma, error) {
	var diplomas []domain.Diploma
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("issued_at DESC").Find(&diplomas).Error
	return diplomas, err
}

func (r *diplomaRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID string) (*domain.Diploma, error) {
	var diploma domain.Diploma
	err := r.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&diploma).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &diploma, nil
}
