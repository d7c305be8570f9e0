package llm

import (
	"github.com/cloudwego/eino/schema"
)

// DeltaStream 上游增量流，按模型产出顺序读取
type DeltaStream struct {
	reader *schema.StreamReader[*schema.Message]
}

func NewDeltaStream(reader *schema.StreamReader[*schema.Message]) *DeltaStream {
	return &DeltaStream{reader: reader}
}

// Recv 读取下一个增量，流结束时返回 io.EOF
// 增量内容可能为空（例如只携带角色或结束原因的分片）
func (s *DeltaStream) Recv() (Delta, error) {
	msg, err := s.reader.Recv()
	if err != nil {
		return Delta{}, err
	}
	if msg == nil {
		return Delta{}, nil
	}
	return Delta{Content: msg.Content}, nil
}

// Close 释放上游连接
func (s *DeltaStream) Close() {
	s.reader.Close()
}
