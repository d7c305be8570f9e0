package mrd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/reqchat/backend/internal/utils"
	"k8s.io/klog/v2"
)

const (
	OpenMarker  = "<MRD_DATA>"
	CloseMarker = "</MRD_DATA>"
)

var errNullPayload = errors.New("mrd payload is null")

// Result 一次提取的结果
// Parsed 为 false 时 MRD 为 nil，Remaining 为原始缓冲区
type Result struct {
	MRD       *MRD
	Remaining string
	Parsed    bool
}

// Extractor 从助手回复中提取标记块内的 MRD
// 无状态，对同一缓冲区重复调用结果相同
type Extractor struct {
	Open  string
	Close string
}

var defaultExtractor = NewExtractor()

// NewExtractor 使用默认标记 <MRD_DATA> / </MRD_DATA>
func NewExtractor() Extractor {
	return Extractor{Open: OpenMarker, Close: CloseMarker}
}

// Extract 使用默认标记提取
func Extract(buffer string) Result {
	return defaultExtractor.Extract(buffer)
}

// Extract 在 buffer 中查找第一个完整的标记块并解析
// 标记缺失、块未闭合或 JSON 无法解析都视为"尚未就绪"，不返回错误
func (e Extractor) Extract(buffer string) Result {
	unparsed := Result{Remaining: buffer}

	start := strings.Index(buffer, e.Open)
	if start < 0 {
		return unparsed
	}
	rest := buffer[start+len(e.Open):]
	end := strings.Index(rest, e.Close)
	if end < 0 {
		return unparsed
	}

	m, err := decode(rest[:end])
	if err != nil {
		klog.V(8).Infof("[MRD] 标记块解析失败: %v", err)
		return unparsed
	}

	remaining := buffer[:start] + rest[end+len(e.Close):]
	return Result{
		MRD:       m,
		Remaining: strings.TrimSpace(remaining),
		Parsed:    true,
	}
}

// Embed 把 MRD 序列化后以标记块形式附加在 prose 之后
func (e Extractor) Embed(m *MRD, prose string) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal mrd: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(prose)
	if prose != "" {
		sb.WriteString("\n")
	}
	sb.WriteString(e.Open)
	sb.WriteString("\n")
	sb.Write(data)
	sb.WriteString("\n")
	sb.WriteString(e.Close)
	return sb.String(), nil
}

// Embed 使用默认标记
func Embed(m *MRD, prose string) (string, error) {
	return defaultExtractor.Embed(m, prose)
}

func decode(payload string) (*MRD, error) {
	var m *MRD
	if err := json.Unmarshal([]byte(utils.StripCodeFence(payload)), &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errNullPayload
	}
	return m, nil
}
