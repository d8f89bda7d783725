package types

import "encoding/json"

// ResumeAnalysis 履历本体的分析块
type ResumeAnalysis struct {
	Score          int      `json:"score"` // 0-100
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	OverallComment string   `json:"overall_comment"`
}

// JobRecommendation 岗位推荐项
type JobRecommendation struct {
	Title         string   `json:"title"`
	Reason        string   `json:"reason"`
	MissingSkills []string `json:"missing_skills"`
}

// ProjectRecommendation 项目推荐项。Difficulty 取值固定为 易/中/難
type ProjectRecommendation struct {
	Name        string `json:"name"`
	Difficulty  string `json:"difficulty"`
	TechStack   string `json:"tech_stack"`
	Description string `json:"description"`
}

// LearningPathItem 学习路径项。Priority 取值固定为 高/中/低
type LearningPathItem struct {
	Topic    string `json:"topic"`
	Resource string `json:"resource"`
	Priority string `json:"priority"`
	URL      string `json:"url"`
}

// AnalysisReport 结构化分析的标准输出。
// 解析失败时返回降级形态：analysis 全零、列表为空、overall_comment 为固定哨兵值，
// raw_text 保存模型的原始输出。
type AnalysisReport struct {
	Analysis               ResumeAnalysis          `json:"analysis"`
	JobRecommendations     []JobRecommendation     `json:"job_recommendations"`
	ProjectRecommendations []ProjectRecommendation `json:"project_recommendations"`
	LearningPath           []LearningPathItem      `json:"learning_path"`
	RawText                string                  `json:"raw_text,omitempty"`
}

// ReportKind 标记一次结构化分析落在哪种结果形态上
type ReportKind int

const (
	// ReportFull 完整报告（模型返回了合法JSON）
	ReportFull ReportKind = iota
	// ReportDegraded 降级报告（模型响应无法解析为JSON）
	ReportDegraded
	// ReportProviderError 供应商调用失败（网络、鉴权、配额等）
	ReportProviderError
)

// ReportOutcome 结构化分析的带标签结果。
// 三种形态（完整/降级/错误）由 Kind 区分，消费方按 Kind 分支而非探测字段。
type ReportOutcome struct {
	Kind   ReportKind      `json:"-"`
	Report *AnalysisReport `json:"-"`
	Err    string          `json:"-"`
}

// MarshalJSON 对外序列化：完整与降级形态输出报告本体，
// 供应商错误输出 {"error": ...} 形态
func (o ReportOutcome) MarshalJSON() ([]byte, error) {
	if o.Kind == ReportProviderError {
		return json.Marshal(map[string]string{"error": o.Err})
	}
	return json.Marshal(o.Report)
}

// UnmarshalJSON 从对外形态还原标签，历史存储读回时依赖此方法。
// {"error": ...} 形态还原为供应商错误；报告本体按 raw_text 是否出现区分
// 完整/降级形态（完整报告从不携带 raw_text）。
func (o *ReportOutcome) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = ReportOutcome{}
		return nil
	}

	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		*o = ReportOutcome{Kind: ReportProviderError, Err: *probe.Error}
		return nil
	}

	var report AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return err
	}
	kind := ReportFull
	if report.RawText != "" {
		kind = ReportDegraded
	}
	*o = ReportOutcome{Kind: kind, Report: &report}
	return nil
}

// GapReport 技能差距报告，AI路径与本地关键字路径产出同一形态，
// Source 是消费方判断执行路径的唯一信号
type GapReport struct {
	MissingSkills  []string `json:"missing_skills"`
	MatchingSkills []string `json:"matching_skills"`
	Score          int      `json:"score"`
	Source         string   `json:"source"`
}

// ProjectSuggestions 项目灵感建议，raw_text 仅在解析降级时填充
type ProjectSuggestions struct {
	Projects []ProjectRecommendation `json:"projects"`
	RawText  string                  `json:"raw_text,omitempty"`
}

// ProjectsOutcome SuggestProjects 的带标签结果，形态语义同 ReportOutcome
type ProjectsOutcome struct {
	Kind        ReportKind          `json:"-"`
	Suggestions *ProjectSuggestions `json:"-"`
	Err         string              `json:"-"`
}

// MarshalJSON 同 ReportOutcome 的对外形态约定
func (o ProjectsOutcome) MarshalJSON() ([]byte, error) {
	if o.Kind == ReportProviderError {
		return json.Marshal(map[string]string{"error": o.Err})
	}
	return json.Marshal(o.Suggestions)
}

// UnmarshalJSON 同 ReportOutcome 的还原约定
func (o *ProjectsOutcome) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = ProjectsOutcome{}
		return nil
	}

	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		*o = ProjectsOutcome{Kind: ReportProviderError, Err: *probe.Error}
		return nil
	}

	var suggestions ProjectSuggestions
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return err
	}
	kind := ReportFull
	if suggestions.RawText != "" {
		kind = ReportDegraded
	}
	*o = ProjectsOutcome{Kind: kind, Suggestions: &suggestions}
	return nil
}

// Stage 流水线阶段
type Stage string

const (
	StageReceived    Stage = "received"
	StageNormalized  Stage = "normalized"
	StageTranscribed Stage = "transcribed"
	StageAnalyzed    Stage = "analyzed"
	StageDone        Stage = "done"
)

// StageNormalize 规范化动作的名字，只出现在失败标记 failed(normalize) 里：
// 规范化失败的文档从未到达 normalized 状态，不能复用状态名
const StageNormalize Stage = "normalize"

// StageTiming 单阶段耗时记录
type StageTiming struct {
	Stage      Stage `json:"stage"`
	DurationMS int64 `json:"duration_ms"`
}

// PipelineResult 一份文档走完流水线后的统一结果。
// Transcript 在转录失败时按历史约定渲染为哨兵字符串（见 constants.TranscriptErrorPrefix），
// TranscriptFailed 是内部判定转录成败的权威信号。
type PipelineResult struct {
	ReportID         string        `json:"report_id"`
	FileName         string        `json:"file_name,omitempty"`
	Transcript       string        `json:"transcript"`
	TranscriptFailed bool          `json:"transcript_failed"`
	Report           ReportOutcome `json:"report"`
	Timings          []StageTiming `json:"timings"`
	CompletedAt      int64         `json:"completed_at"`
}
