package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reqchat/backend/internal/eventbus"
	"github.com/reqchat/backend/internal/model"
	"github.com/reqchat/backend/internal/pkg/llm"
	"github.com/reqchat/backend/internal/pkg/mrd"
	"github.com/reqchat/backend/internal/repository"
	"github.com/reqchat/backend/internal/utils"
	"k8s.io/klog/v2"
)

var (
	ErrProjectNameMissing = errors.New("project name is missing, continue the conversation before submitting")
	ErrInvalidStatus      = errors.New("invalid requirement status")
	ErrEmptyConversation  = errors.New("conversation is empty")
)

// RequirementService 需求提交与管理
type RequirementService interface {
	// Submit 结束对话并提交需求
	Submit(ctx context.Context, userID string, req *SubmitRequirementRequest) (*model.Requirement, error)

	// List 当前用户的需求，最新的在前
	List(ctx context.Context, userID string) ([]model.Requirement, error)

	// Get 获取需求详情，非本人需求视为不存在
	Get(ctx context.Context, userID string, id string) (*model.Requirement, error)

	// UpdateStatus 更新需求状态
	UpdateStatus(ctx context.Context, userID string, id string, status string) (*model.Requirement, error)

	// ConversationMessages 需求对应的对话记录
	ConversationMessages(ctx context.Context, userID string, conversationID string) ([]model.Message, error)
}

// SubmitRequirementRequest 提交需求请求
// MRD 为空时从助手消息中提取
type SubmitRequirementRequest struct {
	Messages []llm.ChatTurn `json:"messages"`
	MRD      *mrd.MRD       `json:"mrd"`
}

type requirementService struct {
	requirements  repository.RequirementRepository
	conversations repository.ConversationRepository
	bus           *eventbus.RequirementEventBus
	extractor     mrd.Extractor
}

func NewRequirementService(
	requirements repository.RequirementRepository,
	conversations repository.ConversationRepository,
	bus *eventbus.RequirementEventBus,
) RequirementService {
	return &requirementService{
		requirements:  requirements,
		conversations: conversations,
		bus:           bus,
		extractor:     mrd.NewExtractor(),
	}
}

func (s *requirementService) Submit(ctx context.Context, userID string, req *SubmitRequirementRequest) (*model.Requirement, error) {
	if len(req.Messages) == 0 {
		return nil, ErrEmptyConversation
	}
	if err := llm.ValidateHistory(req.Messages); err != nil {
		return nil, err
	}

	document := req.MRD
	messages := make([]model.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg := model.Message{SenderType: model.SenderUser, Content: m.Content}
		if m.Role == llm.RoleAssistant {
			msg.SenderType = model.SenderAI
			res := s.extractor.Extract(m.Content)
			if res.Parsed {
				msg.Content = res.Remaining
				if req.MRD == nil {
					document = res.MRD
				}
			}
		}
		messages = append(messages, msg)
	}

	title := strings.TrimSpace(document.Title())
	if title == "" {
		return nil, ErrProjectNameMissing
	}

	conv := &model.Conversation{
		UserID: userID,
		Title:  title,
		Status: model.ConversationStatusCompleted,
	}
	requirement := &model.Requirement{
		UserID:      userID,
		Title:       title,
		Description: document.Summary(),
		Status:      model.RequirementStatusPending,
		Summary:     document,
	}
	if err := s.requirements.CreateWithConversation(ctx, conv, messages, requirement); err != nil {
		klog.Errorf("[RequirementService.Submit] 保存需求失败: userID=%s, err=%v", userID, err)
		return nil, fmt.Errorf("save requirement: %w", err)
	}
	klog.V(6).Infof("[RequirementService.Submit] 需求已提交: id=%s, title=%s, messages=%d", requirement.ID, title, len(messages))
	klog.V(8).Infof("[RequirementService.Submit] MRD: %s", utils.ToJSON(document))

	s.publish(ctx, eventbus.RequirementEvent{
		Type:          eventbus.RequirementEventSubmitted,
		RequirementID: requirement.ID,
		UserID:        userID,
		Title:         title,
		Status:        requirement.Status,
	})
	return requirement, nil
}

func (s *requirementService) List(ctx context.Context, userID string) ([]model.Requirement, error) {
	return s.requirements.ListByUser(ctx, userID)
}

func (s *requirementService) Get(ctx context.Context, userID string, id string) (*model.Requirement, error) {
	requirement, err := s.requirements.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requirement.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return requirement, nil
}

func (s *requirementService) UpdateStatus(ctx context.Context, userID string, id string, status string) (*model.Requirement, error) {
	if !model.IsValidRequirementStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	requirement, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	previous := requirement.Status
	if previous == status {
		return requirement, nil
	}
	if err := s.requirements.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	requirement.Status = status
	klog.V(6).Infof("[RequirementService.UpdateStatus] 需求状态变更: id=%s, %s -> %s", id, previous, status)

	s.publish(ctx, eventbus.RequirementEvent{
		Type:           eventbus.RequirementEventStatusChanged,
		RequirementID:  id,
		UserID:         requirement.UserID,
		Title:          requirement.Title,
		Status:         status,
		PreviousStatus: previous,
	})
	return requirement, nil
}

func (s *requirementService) ConversationMessages(ctx context.Context, userID string, conversationID string) ([]model.Message, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return s.conversations.ListMessages(ctx, conversationID)
}

// publish 通知失败只记录日志，不影响主流程
func (s *requirementService) publish(ctx context.Context, event eventbus.RequirementEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.Type, event); err != nil {
		klog.Warningf("[RequirementService] 事件处理失败: type=%s, requirementID=%s, err=%v", event.Type, event.RequirementID, err)
	}
}
