package mrd

import "strings"

// Turn 一轮助手回复的累积缓冲区
// 每次追加增量后重新提取；解析失败时保留上一次成功解析的 MRD
type Turn struct {
	extractor Extractor
	buf       strings.Builder
	current   *MRD
	display   string
	done      bool
}

// NewTurn 创建新一轮缓冲区，previous 为此前已展示的 MRD（可为 nil）
func NewTurn(previous *MRD) *Turn {
	return NewTurnWithExtractor(NewExtractor(), previous)
}

func NewTurnWithExtractor(extractor Extractor, previous *MRD) *Turn {
	return &Turn{extractor: extractor, current: previous}
}

// Append 追加一个增量，返回 MRD 是否被新的解析结果替换
func (t *Turn) Append(delta string) bool {
	t.buf.WriteString(delta)
	res := t.extractor.Extract(t.buf.String())
	t.display = res.Remaining
	if !res.Parsed {
		return false
	}
	t.current = res.MRD
	return true
}

// Finish 收到结束标记
func (t *Turn) Finish() {
	t.done = true
}

// Done 是否已收到结束标记
func (t *Turn) Done() bool {
	return t.done
}

// Raw 完整的原始回复
func (t *Turn) Raw() string {
	return t.buf.String()
}

// Display 去掉标记块后的对话文本
func (t *Turn) Display() string {
	return t.display
}

// Visible 可以立即展示给用户的文本，随增量只追加不回退
// 标记块整体隐藏；未闭合的块及其之后的内容暂不展示；末尾可能是半个开始标记的部分先保留
func (t *Turn) Visible() string {
	raw := t.buf.String()
	openMarker, closeMarker := t.extractor.Open, t.extractor.Close

	var sb strings.Builder
	for {
		start := strings.Index(raw, openMarker)
		if start < 0 {
			sb.WriteString(raw[:len(raw)-partialSuffix(raw, openMarker)])
			return sb.String()
		}
		sb.WriteString(raw[:start])
		rest := raw[start+len(openMarker):]
		end := strings.Index(rest, closeMarker)
		if end < 0 {
			return sb.String()
		}
		raw = rest[end+len(closeMarker):]
	}
}

// partialSuffix s 末尾与 marker 前缀重合的最长长度
func partialSuffix(s, marker string) int {
	for n := len(marker) - 1; n > 0; n-- {
		if strings.HasSuffix(s, marker[:n]) {
			return n
		}
	}
	return 0
}

// MRD 最近一次成功解析的文档
func (t *Turn) MRD() *MRD {
	return t.current
}
