package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/reqchat/backend/internal/pkg/mrd"
	"gorm.io/gorm"
)

const (
	ConversationStatusActive    = "active"
	ConversationStatusCompleted = "completed"

	SenderUser = "user"
	SenderAI   = "ai"
)

type Conversation struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:64;index;not null"`
	Title     string    `json:"title" gorm:"size:255"`
	Status    string    `json:"status" gorm:"size:50;default:active"` // active, completed
	Messages  []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate GORM 钩子：未指定 ID 时生成 UUID
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"size:36;index;not null"`
	SenderType     string    `json:"sender_type" gorm:"size:20;not null"` // user, ai
	Content        string    `json:"content" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	RequirementStatusPending     = "pending"
	RequirementStatusReviewing   = "reviewing"
	RequirementStatusApproved    = "approved"
	RequirementStatusRejected    = "rejected"
	RequirementStatusImplemented = "implemented"
)

// RequirementStatusLabels 需求状态的中文名称
var RequirementStatusLabels = map[string]string{
	RequirementStatusPending:     "待审核",
	RequirementStatusReviewing:   "审核中",
	RequirementStatusApproved:    "已通过",
	RequirementStatusRejected:    "已拒绝",
	RequirementStatusImplemented: "已实现",
}

// IsValidRequirementStatus 判断状态是否合法
func IsValidRequirementStatus(status string) bool {
	_, ok := RequirementStatusLabels[status]
	return ok
}

// Requirement 用户提交的需求，Summary 为提交时的完整 MRD
type Requirement struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	UserID         string    `json:"user_id" gorm:"size:64;index;not null"`
	ConversationID string    `json:"conversation_id" gorm:"size:36;index"`
	Title          string    `json:"title" gorm:"size:255;not null"`
	Description    string    `json:"description" gorm:"type:text"`
	Status         string    `json:"status" gorm:"size:50;default:pending;index"`
	Summary        *mrd.MRD  `json:"summary" gorm:"type:text;serializer:json"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate GORM 钩子：未指定 ID 时生成 UUID
func (r *Requirement) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
