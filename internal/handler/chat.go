package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reqchat/backend/internal/pkg/llm"
	"github.com/reqchat/backend/internal/pkg/sse"
	"github.com/reqchat/backend/internal/service"
	"k8s.io/klog/v2"
)

// ChatHandler 对话转发处理器
type ChatHandler struct {
	relay *service.RelayService
}

func NewChatHandler(relay *service.RelayService) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// RegisterRoutes 注册路由
func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/chat")
	chat.POST("/send-message", h.SendMessage)
	chat.GET("/profiles", h.Profiles)
	chat.POST("/profiles/:profile/send-message", h.SendMessage)
}

type contentFrame struct {
	Content string `json:"content"`
}

// SendMessage 转发一轮对话，以 text/event-stream 逐段返回模型输出
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req service.RelayRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		klog.V(6).Infof("SendMessage: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	rs, err := h.relay.Open(c.Request.Context(), c.Param("profile"), req)
	if err != nil {
		h.writeOpenError(c, err)
		return
	}
	defer rs.Close()

	sse.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	w := sse.NewWriter(c.Writer)

	for {
		delta, err := rs.Next()
		if errors.Is(err, io.EOF) {
			if err := w.WriteDone(); err != nil {
				klog.V(6).Infof("SendMessage: write done failed: id=%s, err=%v", rs.ID(), err)
			}
			return
		}
		if err != nil {
			// 响应头已发出，只能断开连接，客户端据缺少结束标记判断失败
			klog.Errorf("SendMessage: upstream stream failed: id=%s, err=%v", rs.ID(), err)
			return
		}
		if err := w.WriteJSON(contentFrame{Content: delta.Content}); err != nil {
			klog.V(6).Infof("SendMessage: client gone: id=%s, err=%v", rs.ID(), err)
			return
		}
	}
}

func (h *ChatHandler) writeOpenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMessageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
	case errors.Is(err, llm.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownProfile):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case llm.IsRateLimitError(err):
		klog.Warningf("SendMessage: upstream rate limited: %v", err)
		if wait := llm.RetryAfter(err); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())))
		}
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		klog.Errorf("SendMessage: open upstream failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Profiles 可用的提示词配置
func (h *ChatHandler) Profiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":  h.relay.DefaultProfile(),
		"profiles": h.relay.Profiles(),
	})
}
