package usecase

import (
	"context"
	"time"

	"aula-backend/internal/domain"
)

type notificationUsecase struct {
	repo domain.NotificationRepository
	now  func() time.Time
}

func NewNotificationUsecase(repo domain.NotificationRepository) domain.NotificationUsecase {
	return &notificationUsecase{repo: repo, now: time.Now}
}

func (uc *notificationUsecase) Notify(ctx context.Context, userID uint, title, message, kind, link string) error {
	return uc.repo.Create(ctx, &domain.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		Link:      link,
		CreatedAt: uc.now(),
	})
}

func (uc *notificationUsecase) List(ctx context.Context, userID uint) ([]domain.Notification, error) {
	return uc.repo.GetByUserID(ctx, userID)
}

func (uc *notificationUsecase) MarkRead(ctx context.Context, userID uint, id string) error {
	oid, err := domain.ParseID(id, "notification")
	if err != nil {
		return err
	}
	ok, err := uc.repo.MarkRead(ctx, userID, oid)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("notification not found")
	}
	return nil
}

func (uc *notificationUsecase) MarkAllRead(ctx context.Context, userID uint) error {
	_, err := uc.repo.MarkAllRead(ctx, userID)
	return err
}

func (uc *notificationUsecase) Delete(ctx context.Context, userID uint, id string) error {
	oid, err := domain.ParseID(id, "notification")
	if err != nil {
		return err
	}
	ok, err := uc.repo.Delete(ctx, userID, oid)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("notification not found")
	}
	return nil
}
