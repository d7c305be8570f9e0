package subscriber

import (
	"context"
	"errors"
	"testing"

	"github.com/reqchat/backend/internal/eventbus"
	"github.com/reqchat/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotificationRepo struct {
	created []model.Notification
	err     error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	return m.created, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	return int64(len(m.created)), nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, userID string, id uint) error {
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func TestSubscriberCreatesNotifications(t *testing.T) {
	repo := &mockNotificationRepo{}
	bus := eventbus.NewRequirementEventBus()
	NewRequirementEventSubscriber(repo).Register(bus)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, eventbus.RequirementEventSubmitted, eventbus.RequirementEvent{
		Type: eventbus.RequirementEventSubmitted, RequirementID: "r1", UserID: "u1", Title: "记账",
	}))
	require.NoError(t, bus.Publish(ctx, eventbus.RequirementEventStatusChanged, eventbus.RequirementEvent{
		Type: eventbus.RequirementEventStatusChanged, RequirementID: "r1", UserID: "u1", Title: "记账",
		Status: model.RequirementStatusApproved, PreviousStatus: model.RequirementStatusPending,
	}))

	require.Len(t, repo.created, 2)
	assert.Equal(t, "需求已提交", repo.created[0].Title)
	assert.Equal(t, "r1", repo.created[0].RequirementID)
	assert.Equal(t, "u1", repo.created[1].UserID)
	assert.Contains(t, repo.created[1].Content, "已通过")
}

func TestSubscriberPropagatesRepoError(t *testing.T) {
	repo := &mockNotificationRepo{err: errors.New("db down")}
	bus := eventbus.NewRequirementEventBus()
	NewRequirementEventSubscriber(repo).Register(bus)

	err := bus.Publish(context.Background(), eventbus.RequirementEventSubmitted, eventbus.RequirementEvent{UserID: "u1"})
	assert.ErrorContains(t, err, "db down")
}
