package repository

import (
	"context"
	"errors"

	"github.com/reqchat/backend/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

type ConversationRepository interface {
	Get(ctx context.Context, id string) (*model.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
}

type RequirementRepository interface {
	// CreateWithConversation 在同一事务内写入会话、消息和需求
	CreateWithConversation(ctx context.Context, conv *model.Conversation, messages []model.Message, req *model.Requirement) error
	ListByUser(ctx context.Context, userID string) ([]model.Requirement, error)
	Get(ctx context.Context, id string) (*model.Requirement, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, id uint) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
