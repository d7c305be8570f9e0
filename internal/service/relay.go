package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/reqchat/backend/config"
	"github.com/reqchat/backend/internal/pkg/llm"
	"k8s.io/klog/v2"
)

var (
	ErrMessageRequired = errors.New("message is required")
	ErrUnknownProfile  = errors.New("unknown chat profile")
	ErrIdleTimeout     = errors.New("upstream stream idle timeout")
)

// DeltaSource 上游流式对话，llm.Client 为其实现
type DeltaSource interface {
	StreamChat(ctx context.Context, systemPrompt string, history []llm.ChatTurn, message string) (*llm.DeltaStream, error)
}

// RelayRequest 一轮对话请求
type RelayRequest struct {
	Message string         `json:"message"`
	History []llm.ChatTurn `json:"history"`
}

// Profile 一种系统提示词配置
type Profile struct {
	Name         string `json:"name"`
	ExtractMRD   bool   `json:"extract_mrd"`
	SystemPrompt string `json:"-"`
}

// RelayService 把对话转发给上游模型并返回增量流
// 服务本身无会话状态，每次请求独立
type RelayService struct {
	source         DeltaSource
	profiles       map[string]Profile
	names          []string
	defaultProfile string
	idleTimeout    time.Duration
	requestTimeout time.Duration
}

func NewRelayService(cfg *config.Config, source DeltaSource) *RelayService {
	profiles := make(map[string]Profile, len(cfg.Relay.Profiles))
	for name, p := range cfg.Relay.Profiles {
		profiles[name] = Profile{Name: name, ExtractMRD: p.ExtractMRD, SystemPrompt: p.SystemPrompt}
	}
	return &RelayService{
		source:         source,
		profiles:       profiles,
		names:          cfg.ProfileNames(),
		defaultProfile: cfg.Relay.DefaultProfile,
		idleTimeout:    cfg.Relay.IdleTimeout,
		requestTimeout: cfg.LLM.Timeout,
	}
}

// Profiles 可用的 profile 列表（按名称排序）
func (s *RelayService) Profiles() []Profile {
	out := make([]Profile, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.profiles[name])
	}
	return out
}

// DefaultProfile 默认 profile 名称
func (s *RelayService) DefaultProfile() string {
	return s.defaultProfile
}

// Resolve 查找 profile，name 为空时使用默认 profile
func (s *RelayService) Resolve(name string) (Profile, error) {
	if name == "" {
		name = s.defaultProfile
	}
	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p, nil
}

// Open 校验请求并打开上游流
// 返回错误时没有任何增量产生，调用方可以安全地返回普通错误响应
func (s *RelayService) Open(ctx context.Context, profileName string, req RelayRequest) (*RelayStream, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrMessageRequired
	}
	if err := llm.ValidateHistory(req.History); err != nil {
		return nil, err
	}
	profile, err := s.Resolve(profileName)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	klog.V(6).Infof("[Relay] 打开上游流: id=%s, profile=%s, history=%d", id, profile.Name, len(req.History))

	var streamCtx context.Context
	var cancel context.CancelFunc
	if s.requestTimeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, s.requestTimeout)
	} else {
		streamCtx, cancel = context.WithCancel(ctx)
	}

	rs := &RelayStream{
		id:     id,
		cancel: cancel,
		ctx:    streamCtx,
	}
	// 等待上游响应头同样计入空闲时间
	if s.idleTimeout > 0 {
		rs.idle = s.idleTimeout
		rs.timer = time.AfterFunc(s.idleTimeout, rs.expire)
	}

	stream, err := s.source.StreamChat(streamCtx, profile.SystemPrompt, req.History, req.Message)
	if err != nil {
		rs.stop()
		if rs.expired.Load() {
			err = ErrIdleTimeout
		}
		klog.Errorf("[Relay] 打开上游流失败: id=%s, err=%v", id, err)
		return nil, err
	}
	if rs.expired.Load() {
		rs.stop()
		stream.Close()
		return nil, ErrIdleTimeout
	}
	rs.stream = stream
	return rs, nil
}

// RelayStream 单次请求的上游增量流，只能被一个 goroutine 读取
type RelayStream struct {
	id      string
	stream  *llm.DeltaStream
	ctx     context.Context
	cancel  context.CancelFunc
	timer   *time.Timer
	idle    time.Duration
	expired atomic.Bool
	count   int
}

func (r *RelayStream) ID() string {
	return r.id
}

func (r *RelayStream) expire() {
	r.expired.Store(true)
	klog.Warningf("[Relay] 上游超过 %s 无增量，取消请求: id=%s", r.idle, r.id)
	r.cancel()
}

// Next 返回下一个非空增量；上游正常结束返回 io.EOF
func (r *RelayStream) Next() (llm.Delta, error) {
	for {
		delta, err := r.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				klog.V(6).Infof("[Relay] 上游流结束: id=%s, deltas=%d", r.id, r.count)
				return llm.Delta{}, io.EOF
			}
			if r.expired.Load() {
				return llm.Delta{}, ErrIdleTimeout
			}
			if ctxErr := r.ctx.Err(); ctxErr != nil {
				return llm.Delta{}, ctxErr
			}
			return llm.Delta{}, err
		}
		if r.expired.Load() {
			return llm.Delta{}, ErrIdleTimeout
		}
		if r.timer != nil {
			r.timer.Reset(r.idle)
		}
		if delta.Content == "" {
			continue
		}
		r.count++
		return delta, nil
	}
}

func (r *RelayStream) stop() {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.cancel()
}

// Close 停止读取并释放上游连接
func (r *RelayStream) Close() {
	r.stop()
	r.stream.Close()
}
