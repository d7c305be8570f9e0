package mrd

// Priority 功能优先级，P0 最高
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
)

// Feature 核心功能
type Feature struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// MRD 市场需求文档
// 所有字段均可缺省，模型会随对话逐步补全；每次解析成功后整体替换，不做字段级合并
// 列表字段不省略，空列表与未填写（null）序列化后可以区分
type MRD struct {
	ProjectName               *string   `json:"project_name,omitempty"`
	Background                *string   `json:"background,omitempty"`
	TargetUsers               []string  `json:"target_users"`
	CoreFeatures              []Feature `json:"core_features"`
	UserStories               []string  `json:"user_stories"`
	NonFunctionalRequirements []string  `json:"non_functional_requirements"`
	SuccessMetrics            []string  `json:"success_metrics"`
}

// Title 项目名称，未填写时为空串
func (m *MRD) Title() string {
	if m == nil || m.ProjectName == nil {
		return ""
	}
	return *m.ProjectName
}

// Summary 项目背景，未填写时为空串
func (m *MRD) Summary() string {
	if m == nil || m.Background == nil {
		return ""
	}
	return *m.Background
}

// String 返回字符串指针，便于构造 MRD
func String(s string) *string {
	return &s
}
