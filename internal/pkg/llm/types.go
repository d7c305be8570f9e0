package llm

import (
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrInvalidRole 历史消息中的角色只能是 user 或 assistant
var ErrInvalidRole = errors.New("invalid role")

// ChatTurn 一条对话历史，调用方每轮都会重发完整历史
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Delta 上游模型流式返回的一个增量片段
type Delta struct {
	Content string `json:"content"`
}

// StreamOptions 单次流式请求的采样参数
type StreamOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// ValidateHistory 校验历史消息角色
func ValidateHistory(history []ChatTurn) error {
	for i, turn := range history {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return fmt.Errorf("%w: history[%d].role=%q", ErrInvalidRole, i, turn.Role)
		}
	}
	return nil
}

// BuildMessages 组装上游请求：系统提示词 + 历史 + 本轮用户消息
func BuildMessages(systemPrompt string, history []ChatTurn, message string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	for _, turn := range history {
		switch turn.Role {
		case RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}
	messages = append(messages, schema.UserMessage(message))
	return messages
}
