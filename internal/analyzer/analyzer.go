package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"resume-insight-go/internal/constants"
	"resume-insight-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
)

// StructuredAnalyzer 把转录文本送入文本生成模型，产出严格JSON契约的结构化结果。
// llmModel 为 nil 表示模型未配置，此时差距分析直接走本地关键字比对。
type StructuredAnalyzer struct {
	llmModel model.ToolCallingChatModel
	fallback *KeywordMatcher
	logger   *log.Logger
}

// NewStructuredAnalyzer 创建结构化分析器
func NewStructuredAnalyzer(llmModel model.ToolCallingChatModel, logger *log.Logger) *StructuredAnalyzer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &StructuredAnalyzer{
		llmModel: llmModel,
		fallback: NewKeywordMatcher(),
		logger:   logger,
	}
}

// Configured 返回文本生成模型是否可用
func (a *StructuredAnalyzer) Configured() bool {
	return a != nil && a.llmModel != nil
}

// Fallback 暴露本地关键字比对器（流水线与测试会直接使用）
func (a *StructuredAnalyzer) Fallback() *KeywordMatcher {
	return a.fallback
}

// AnalyzeResume 对转录文本做履历分析。
// 结果是带标签的三形态联合：完整报告 / 降级报告（JSON解析失败）/ 供应商错误。
// 任何情况下都不会向上抛异常。
func (a *StructuredAnalyzer) AnalyzeResume(ctx context.Context, resumeText string) types.ReportOutcome {
	if !a.Configured() {
		return types.ReportOutcome{Kind: types.ReportProviderError, Err: "文本生成模型未配置"}
	}

	raw, err := a.generate(ctx, buildResumeReportPrompt(resumeText))
	if err != nil {
		a.logger.Printf("[Analyzer] 履历分析调用失败: %v", err)
		return types.ReportOutcome{Kind: types.ReportProviderError, Err: err.Error()}
	}

	var report types.AnalysisReport
	if err := a.parseStrictJSON(raw, &report); err != nil {
		a.logger.Printf("[Analyzer] 履历分析响应无法解析: %v", err)
		return types.ReportOutcome{Kind: types.ReportDegraded, Report: degradedReport(raw)}
	}

	normalizeReport(&report)
	return types.ReportOutcome{Kind: types.ReportFull, Report: &report}
}

// gapResponse AnalyzeGap 要求模型返回的最小结构
type gapResponse struct {
	MissingSkills  []string `json:"missing_skills"`
	MatchingSkills []string `json:"matching_skills"`
	Score          int      `json:"score"`
}

// AnalyzeGap 比对履历与JD的技能差距。
// 守卫条款：模型未配置或JD短于阈值（过短的JD不足以支撑有意义的AI比对）时
// 完全跳过模型调用，委托给本地关键字比对；任何失败同样降级到本地比对。
// 本方法按构造不存在不可恢复的失败路径。
func (a *StructuredAnalyzer) AnalyzeGap(ctx context.Context, resumeText, jdText string) types.GapReport {
	if !a.Configured() || utf8.RuneCountInString(jdText) < constants.MinJDLengthForAI {
		return a.fallback.AnalyzeGap(resumeText, jdText)
	}

	raw, err := a.generate(ctx, buildGapPrompt(resumeText, jdText))
	if err != nil {
		a.logger.Printf("[Analyzer] 差距分析调用失败，降级为本地比对: %v", err)
		return a.fallback.AnalyzeGap(resumeText, jdText)
	}

	var resp gapResponse
	if err := a.parseStrictJSON(raw, &resp); err != nil {
		a.logger.Printf("[Analyzer] 差距分析响应无法解析，降级为本地比对: %v", err)
		return a.fallback.AnalyzeGap(resumeText, jdText)
	}

	return types.GapReport{
		MissingSkills:  emptyIfNil(resp.MissingSkills),
		MatchingSkills: emptyIfNil(resp.MatchingSkills),
		Score:          clampScore(resp.Score),
		Source:         constants.GapSourceAI,
	}
}

// SuggestProjects 依据技能与兴趣生成side project建议，遵循同样的
// 剥离代码块/容错解析/降级的纪律
func (a *StructuredAnalyzer) SuggestProjects(ctx context.Context, skills, interests []string) types.ProjectsOutcome {
	if !a.Configured() {
		return types.ProjectsOutcome{Kind: types.ReportProviderError, Err: "文本生成模型未配置"}
	}

	raw, err := a.generate(ctx, buildProjectsPrompt(skills, interests))
	if err != nil {
		a.logger.Printf("[Analyzer] 项目建议调用失败: %v", err)
		return types.ProjectsOutcome{Kind: types.ReportProviderError, Err: err.Error()}
	}

	var suggestions types.ProjectSuggestions
	if err := a.parseStrictJSON(raw, &suggestions); err != nil {
		a.logger.Printf("[Analyzer] 项目建议响应无法解析: %v", err)
		return types.ProjectsOutcome{
			Kind: types.ReportDegraded,
			Suggestions: &types.ProjectSuggestions{
				Projects: []types.ProjectRecommendation{},
				RawText:  raw,
			},
		}
	}

	if suggestions.Projects == nil {
		suggestions.Projects = []types.ProjectRecommendation{}
	}
	return types.ProjectsOutcome{Kind: types.ReportFull, Suggestions: &suggestions}
}

// NormalizeSkillInput 把请求边界上的技能输入统一为字符串切片。
// 接受JSON数组或逗号分隔的字符串两种形态。
func NormalizeSkillInput(v interface{}) []string {
	var items []string
	switch val := v.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// generate 调用文本生成模型并返回原始文本响应
func (a *StructuredAnalyzer) generate(ctx context.Context, prompt string) (string, error) {
	messages := []*einoschema.Message{
		einoschema.SystemMessage(analyzerSystemPrompt),
		einoschema.UserMessage(prompt),
	}

	response, err := a.llmModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("模型调用失败: %w", err)
	}
	if response == nil || response.Content == "" {
		return "", fmt.Errorf("模型返回了空响应")
	}
	return response.Content, nil
}

// parseStrictJSON 容错解析：剥离代码块标记 -> 花括号提取 -> 反序列化，
// 失败后修复字符串内部的裸引号再试一次
func (a *StructuredAnalyzer) parseStrictJSON(raw string, out interface{}) error {
	jsonStr := extractJSON(stripFences(raw))
	if jsonStr == "" {
		return fmt.Errorf("响应中找不到JSON对象")
	}
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		fixed := sanitizeJSON(jsonStr)
		if retryErr := json.Unmarshal([]byte(fixed), out); retryErr != nil {
			return fmt.Errorf("JSON反序列化失败: %w (修复重试: %v)", err, retryErr)
		}
	}
	return nil
}

// degradedReport 解析失败时的降级形态：analysis全零、列表为空、
// overall_comment为固定哨兵值、raw_text保存模型原始输出
func degradedReport(raw string) *types.AnalysisReport {
	return &types.AnalysisReport{
		Analysis: types.ResumeAnalysis{
			Score:          0,
			Strengths:      []string{},
			Weaknesses:     []string{},
			OverallComment: constants.DegradedOverallComment,
		},
		JobRecommendations:     []types.JobRecommendation{},
		ProjectRecommendations: []types.ProjectRecommendation{},
		LearningPath:           []types.LearningPathItem{},
		RawText:                raw,
	}
}

// normalizeReport 把完整报告收敛到契约约定的值域
func normalizeReport(report *types.AnalysisReport) {
	report.Analysis.Score = clampScore(report.Analysis.Score)
	report.Analysis.Strengths = emptyIfNil(report.Analysis.Strengths)
	report.Analysis.Weaknesses = emptyIfNil(report.Analysis.Weaknesses)
	if report.JobRecommendations == nil {
		report.JobRecommendations = []types.JobRecommendation{}
	}
	if report.ProjectRecommendations == nil {
		report.ProjectRecommendations = []types.ProjectRecommendation{}
	}
	if report.LearningPath == nil {
		report.LearningPath = []types.LearningPathItem{}
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
