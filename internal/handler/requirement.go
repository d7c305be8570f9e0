package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reqchat/backend/internal/middleware"
	"github.com/reqchat/backend/internal/pkg/llm"
	"github.com/reqchat/backend/internal/repository"
	"github.com/reqchat/backend/internal/service"
	"k8s.io/klog/v2"
)

// RequirementHandler 需求处理器
type RequirementHandler struct {
	service service.RequirementService
}

func NewRequirementHandler(service service.RequirementService) *RequirementHandler {
	return &RequirementHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *RequirementHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/requirements", h.Submit)
	router.GET("/requirements", h.List)
	router.GET("/requirements/:id", h.Get)
	router.PATCH("/requirements/:id/status", h.UpdateStatus)
	router.GET("/conversations/:id/messages", h.ConversationMessages)
}

// UpdateStatusRequest 更新状态请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Submit 提交需求
func (h *RequirementHandler) Submit(c *gin.Context) {
	var req service.SubmitRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("SubmitRequirement: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requirement, err := h.service.Submit(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		writeServiceError(c, "SubmitRequirement", err)
		return
	}
	c.JSON(http.StatusCreated, requirement)
}

// List 当前用户的需求列表
func (h *RequirementHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, "ListRequirements", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get 需求详情
func (h *RequirementHandler) Get(c *gin.Context) {
	requirement, err := h.service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, "GetRequirement", err)
		return
	}
	c.JSON(http.StatusOK, requirement)
}

// UpdateStatus 更新需求状态
func (h *RequirementHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requirement, err := h.service.UpdateStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		writeServiceError(c, "UpdateRequirementStatus", err)
		return
	}
	c.JSON(http.StatusOK, requirement)
}

// ConversationMessages 会话消息记录
func (h *RequirementHandler) ConversationMessages(c *gin.Context) {
	messages, err := h.service.ConversationMessages(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, "ConversationMessages", err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func writeServiceError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrProjectNameMissing),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrEmptyConversation),
		errors.Is(err, llm.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		klog.Errorf("%s: failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
