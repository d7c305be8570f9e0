package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/reqchat/backend/config"
	"k8s.io/klog/v2"
)

// ChatStreamer 流式对话模型，eino 的 openai.ChatModel 即满足该接口
type ChatStreamer interface {
	Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error)
}

// Client LLM 客户端
type Client struct {
	streamer ChatStreamer
	options  StreamOptions
}

// NewClient 基于配置创建 OpenAI 兼容的流式客户端
func NewClient(cfg *config.Config) (*Client, error) {
	chatModelConfig := &openai.ChatModelConfig{
		BaseURL: cfg.LLM.APIURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		// 流式响应不能使用整体超时，空闲超时由调用方控制
		HTTPClient: &http.Client{},
	}

	chatModel, err := openai.NewChatModel(context.Background(), chatModelConfig)
	if err != nil {
		klog.Errorf("[LLM] 创建 ChatModel 失败: %v", err)
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	klog.V(6).Infof("[LLM] ChatModel 创建成功: model=%s, baseURL=%s", cfg.LLM.Model, cfg.LLM.APIURL)
	return NewClientWithStreamer(chatModel, StreamOptions{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}), nil
}

// NewClientWithStreamer 使用自定义模型创建客户端
func NewClientWithStreamer(streamer ChatStreamer, options StreamOptions) *Client {
	return &Client{streamer: streamer, options: options}
}

// StreamChat 发送一轮对话并返回增量流
// 打开流失败（上游拒绝、鉴权失败等）时直接返回错误，此时尚未产生任何增量
func (c *Client) StreamChat(ctx context.Context, systemPrompt string, history []ChatTurn, message string) (*DeltaStream, error) {
	messages := BuildMessages(systemPrompt, history, message)
	klog.V(6).Infof("[LLM] StreamChat 请求: model=%s, messages=%d", c.options.Model, len(messages))

	opts := []model.Option{
		model.WithTemperature(c.options.Temperature),
		model.WithMaxTokens(c.options.MaxTokens),
	}
	if c.options.Model != "" {
		opts = append(opts, model.WithModel(c.options.Model))
	}

	reader, err := c.streamer.Stream(ctx, messages, opts...)
	if err != nil {
		klog.Errorf("[LLM] StreamChat 失败: %v", err)
		return nil, err
	}
	return NewDeltaStream(reader), nil
}
