package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/reqchat/backend/internal/model"
	"gorm.io/gorm"
)

type requirementRepository struct {
	db *gorm.DB
}

func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &requirementRepository{db: db}
}

func (r *requirementRepository) CreateWithConversation(ctx context.Context, conv *model.Conversation, messages []model.Message, req *model.Requirement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		for i := range messages {
			messages[i].ConversationID = conv.ID
		}
		if len(messages) > 0 {
			if err := tx.Create(&messages).Error; err != nil {
				return fmt.Errorf("create messages: %w", err)
			}
		}
		req.ConversationID = conv.ID
		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("create requirement: %w", err)
		}
		return nil
	})
}

func (r *requirementRepository) ListByUser(ctx context.Context, userID string) ([]model.Requirement, error) {
	var reqs []model.Requirement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []model.Requirement{}
	}
	return reqs, nil
}

func (r *requirementRepository) Get(ctx context.Context, id string) (*model.Requirement, error) {
	var req model.Requirement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *requirementRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Requirement{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
