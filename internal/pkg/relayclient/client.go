package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/reqchat/backend/internal/pkg/llm"
	"github.com/reqchat/backend/internal/pkg/sse"
	"k8s.io/klog/v2"
)

// Client 转发接口的 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// StatusError 非 200 响应
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, e.Message)
}

type sendRequest struct {
	Message string         `json:"message"`
	History []llm.ChatTurn `json:"history"`
}

type frame struct {
	Content string `json:"content"`
}

// Send 发送一轮对话，每收到一段内容调用一次 onDelta
// 流在结束标记之前断开时返回 sse.ErrIncomplete
func (c *Client) Send(ctx context.Context, profile, message string, history []llm.ChatTurn, onDelta func(string)) error {
	if history == nil {
		history = []llm.ChatTurn{}
	}
	body, err := json.Marshal(sendRequest{Message: message, History: history})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(profile), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}

	reader := sse.NewReader(resp.Body)
	for {
		data, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return sse.ErrIncomplete
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", sse.ErrIncomplete, err)
		}
		if data == sse.Done {
			return nil
		}
		var f frame
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			klog.V(6).Infof("relayclient: 忽略无法解析的帧: %q", data)
			continue
		}
		if f.Content != "" && onDelta != nil {
			onDelta(f.Content)
		}
	}
}

func (c *Client) endpoint(profile string) string {
	if profile == "" {
		return c.baseURL + "/api/chat/send-message"
	}
	return c.baseURL + "/api/chat/profiles/" + url.PathEscape(profile) + "/send-message"
}

func readStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
