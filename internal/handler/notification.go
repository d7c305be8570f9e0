package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reqchat/backend/internal/middleware"
	"github.com/reqchat/backend/internal/service"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	service *service.NotificationService
}

func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/notifications", h.List)
	router.POST("/notifications/read-all", h.MarkAllRead)
	router.POST("/notifications/:id/read", h.MarkRead)
}

// List 通知列表，?limit= 控制条数
func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.service.List(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		writeServiceError(c, "ListNotifications", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkRead 标记单条已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), middleware.UserID(c), uint(id)); err != nil {
		writeServiceError(c, "MarkNotificationRead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// MarkAllRead 全部标记已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	count, err := h.service.MarkAllRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, "MarkAllNotificationsRead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": count})
}
