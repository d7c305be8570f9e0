package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/reqchat/backend/internal/model"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db error: %v", err)
	}
	// 内存库每个连接独立，限制为单连接
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.Conversation{}, &model.Message{}, &model.Requirement{}, &model.Notification{}); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return db
}
