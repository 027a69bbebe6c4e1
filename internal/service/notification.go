package service

import (
	"context"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, p *domain.Principal, page, pageSize int32) ([]domain.Notification, int32, error) {
	if p == nil {
		return nil, 0, domain.ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, p.UserID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, p *domain.Principal, notificationID int32) error {
	if p == nil {
		return domain.ErrForbidden
	}
	return s.noteRepo.MarkAsRead(ctx, notificationID, p.UserID)
}
