package subscriber

import (
	"context"
	"fmt"

	"github.com/reqchat/backend/internal/eventbus"
	"github.com/reqchat/backend/internal/model"
	"github.com/reqchat/backend/internal/repository"
	"k8s.io/klog/v2"
)

// RequirementEventSubscriber 把需求事件转成站内通知
type RequirementEventSubscriber struct {
	notifications repository.NotificationRepository
}

func NewRequirementEventSubscriber(notifications repository.NotificationRepository) *RequirementEventSubscriber {
	return &RequirementEventSubscriber{notifications: notifications}
}

func (s *RequirementEventSubscriber) Register(bus *eventbus.RequirementEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.RequirementEventSubmitted, s.handleSubmitted)
	bus.Subscribe(eventbus.RequirementEventStatusChanged, s.handleStatusChanged)
}

func (s *RequirementEventSubscriber) handleSubmitted(ctx context.Context, event eventbus.RequirementEvent) error {
	n := &model.Notification{
		UserID:        event.UserID,
		RequirementID: event.RequirementID,
		Title:         "需求已提交",
		Content:       fmt.Sprintf("您的需求「%s」已提交，等待审核。", event.Title),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create submitted notification: %w", err)
	}
	klog.V(6).Infof("需求提交通知已创建: requirementID=%s, userID=%s", event.RequirementID, event.UserID)
	return nil
}

func (s *RequirementEventSubscriber) handleStatusChanged(ctx context.Context, event eventbus.RequirementEvent) error {
	label := model.RequirementStatusLabels[event.Status]
	if label == "" {
		label = event.Status
	}
	n := &model.Notification{
		UserID:        event.UserID,
		RequirementID: event.RequirementID,
		Title:         "需求状态更新",
		Content:       fmt.Sprintf("您的需求「%s」状态已更新为：%s", event.Title, label),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create status notification: %w", err)
	}
	klog.V(6).Infof("需求状态通知已创建: requirementID=%s, %s -> %s", event.RequirementID, event.PreviousStatus, event.Status)
	return nil
}
