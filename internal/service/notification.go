package service

import (
	"context"

	"github.com/reqchat/backend/internal/model"
	"github.com/reqchat/backend/internal/repository"
)

const defaultNotificationLimit = 50

// NotificationList 通知列表及未读数
type NotificationList struct {
	Items  []model.Notification `json:"items"`
	Unread int64                `json:"unread"`
}

type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int) (*NotificationList, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	items, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Notification{}
	}
	return &NotificationList{Items: items, Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID string, id uint) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead 返回本次被标记的条数
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
