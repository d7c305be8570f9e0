package model

import "time"

// Notification 站内通知
type Notification struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"size:64;index;not null"`
	RequirementID string    `json:"requirement_id" gorm:"size:36;index"`
	Title         string    `json:"title" gorm:"size:255;not null"`
	Content       string    `json:"content" gorm:"type:text"`
	IsRead        bool      `json:"is_read" gorm:"default:false"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
