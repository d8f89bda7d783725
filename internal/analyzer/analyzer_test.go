package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"resume-insight-go/internal/constants"
	"resume-insight-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用LLM模型模拟器
type MockLLMModel struct {
	// 模拟响应
	mockResponse string
	// 用于测试的错误
	Err error
	// 用于测试的调用次数
	CallCount int
}

// Generate 实现model.ChatModel接口
func (m *MockLLMModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return &schema.Message{
		Role:    "assistant",
		Content: m.mockResponse,
	}, nil
}

// Stream 实现model.ChatModel接口
func (m *MockLLMModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

// WithTools 实现 model.ToolCallingChatModel 接口
func (m *MockLLMModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

const validReportJSON = `{
	"analysis": {
		"score": 78,
		"strengths": ["有量化的專案成果", "技術棧描述清晰"],
		"weaknesses": ["缺乏團隊協作的描述"],
		"overall_comment": "整體不錯，建議補充協作經驗"
	},
	"job_recommendations": [
		{"title": "後端工程師", "reason": "技術棧匹配", "missing_skills": ["Kubernetes"]}
	],
	"project_recommendations": [
		{"name": "短網址服務", "difficulty": "中", "tech_stack": "Go + Redis", "description": "練習高並發設計"}
	],
	"learning_path": [
		{"topic": "Kubernetes", "resource": "官方文件", "priority": "高", "url": "https://kubernetes.io"}
	]
}`

func TestAnalyzeResumeFullReport(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: validReportJSON}
	a := NewStructuredAnalyzer(mockLLM, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcome := a.AnalyzeResume(ctx, "某份履歷文本")
	require.Equal(t, types.ReportFull, outcome.Kind)
	require.NotNil(t, outcome.Report)

	assert.Equal(t, 78, outcome.Report.Analysis.Score)
	assert.Len(t, outcome.Report.Analysis.Strengths, 2)
	assert.Equal(t, "後端工程師", outcome.Report.JobRecommendations[0].Title)
	assert.Empty(t, outcome.Report.RawText, "完整报告不应携带raw_text")
	assert.Equal(t, 1, mockLLM.CallCount)
}

func TestAnalyzeResumeStripsFences(t *testing.T) {
	// 模型违规包裹代码块标记时仍应解析成功
	fenced := "```json\n" + validReportJSON + "\n```"
	mockLLM := &MockLLMModel{mockResponse: fenced}
	a := NewStructuredAnalyzer(mockLLM, nil)

	outcome := a.AnalyzeResume(context.Background(), "履歷")
	require.Equal(t, types.ReportFull, outcome.Kind)
	assert.Equal(t, 78, outcome.Report.Analysis.Score)
}

func TestAnalyzeResumeScoreClamped(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"analysis": {"score": 250, "strengths": [], "weaknesses": [], "overall_comment": "ok"}}`}
	a := NewStructuredAnalyzer(mockLLM, nil)

	outcome := a.AnalyzeResume(context.Background(), "履歷")
	require.Equal(t, types.ReportFull, outcome.Kind)
	assert.Equal(t, 100, outcome.Report.Analysis.Score)
	assert.NotNil(t, outcome.Report.JobRecommendations)
	assert.NotNil(t, outcome.Report.LearningPath)
}

func TestAnalyzeResumeDegradedOnMalformedResponse(t *testing.T) {
	raw := "很抱歉，我無法以JSON格式回答這個問題。"
	mockLLM := &MockLLMModel{mockResponse: raw}
	a := NewStructuredAnalyzer(mockLLM, nil)

	outcome := a.AnalyzeResume(context.Background(), "履歷")
	require.Equal(t, types.ReportDegraded, outcome.Kind)
	require.NotNil(t, outcome.Report)

	assert.Equal(t, 0, outcome.Report.Analysis.Score)
	assert.Equal(t, constants.DegradedOverallComment, outcome.Report.Analysis.OverallComment)
	assert.Equal(t, raw, outcome.Report.RawText, "raw_text必须逐字保存模型原始输出")
	assert.Empty(t, outcome.Report.Analysis.Strengths)
}

func TestAnalyzeResumeProviderError(t *testing.T) {
	mockLLM := &MockLLMModel{Err: fmt.Errorf("quota exceeded")}
	a := NewStructuredAnalyzer(mockLLM, nil)

	outcome := a.AnalyzeResume(context.Background(), "履歷")
	require.Equal(t, types.ReportProviderError, outcome.Kind)
	assert.Contains(t, outcome.Err, "quota exceeded")

	// 对外序列化为 {"error": ...} 形态
	data, err := json.Marshal(outcome)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded["error"], "quota exceeded")
}

func TestAnalyzeResumeUnconfigured(t *testing.T) {
	a := NewStructuredAnalyzer(nil, nil)

	outcome := a.AnalyzeResume(context.Background(), "履歷")
	assert.Equal(t, types.ReportProviderError, outcome.Kind)
}

func TestAnalyzeGapShortJDSkipsModel(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"missing_skills": [], "matching_skills": [], "score": 99}`}
	a := NewStructuredAnalyzer(mockLLM, nil)

	// JD不足10个字符时完全不触碰模型
	report := a.AnalyzeGap(context.Background(), "Python, React", "短JD")
	assert.Equal(t, constants.GapSourceLocal, report.Source)
	assert.Equal(t, 0, mockLLM.CallCount, "短JD守卫必须在模型调用之前生效")
}

func TestAnalyzeGapUnconfiguredUsesFallback(t *testing.T) {
	a := NewStructuredAnalyzer(nil, nil)

	report := a.AnalyzeGap(context.Background(), "Python, React", "Must know Python and Docker")
	assert.Equal(t, constants.GapSourceLocal, report.Source)
	assert.Equal(t, []string{"python"}, report.MatchingSkills)
	assert.Equal(t, []string{"docker"}, report.MissingSkills)
	assert.Equal(t, 50, report.Score)
}

func TestAnalyzeGapAIPath(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"missing_skills": ["Kubernetes"], "matching_skills": ["Go", "Redis"], "score": 67}`}
	a := NewStructuredAnalyzer(mockLLM, nil)

	report := a.AnalyzeGap(context.Background(), "熟悉Go與Redis的後端工程師履歷", "徵求Go後端，需要Kubernetes經驗")
	assert.Equal(t, constants.GapSourceAI, report.Source)
	assert.Equal(t, []string{"Kubernetes"}, report.MissingSkills)
	assert.Equal(t, 67, report.Score)
	assert.Equal(t, 1, mockLLM.CallCount)
}

func TestAnalyzeGapFallsBackOnProviderError(t *testing.T) {
	mockLLM := &MockLLMModel{Err: fmt.Errorf("connection refused")}
	a := NewStructuredAnalyzer(mockLLM, nil)

	report := a.AnalyzeGap(context.Background(), "Python, React", "Must know Python and Docker")
	assert.Equal(t, constants.GapSourceLocal, report.Source)
	assert.Equal(t, 50, report.Score)
}

func TestAnalyzeGapFallsBackOnMalformedResponse(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: "不是JSON的回應"}
	a := NewStructuredAnalyzer(mockLLM, nil)

	report := a.AnalyzeGap(context.Background(), "Python, React", "Must know Python and Docker")
	assert.Equal(t, constants.GapSourceLocal, report.Source)
}

func TestSuggestProjectsFull(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"projects": [{"name": "個人部落格", "difficulty": "易", "tech_stack": "Go + SQLite", "description": "練習全端開發"}]}`}
	a := NewStructuredAnalyzer(mockLLM, nil)

	outcome := a.SuggestProjects(context.Background(), []string{"Go"}, []string{"寫作"})
	require.Equal(t, types.ReportFull, outcome.Kind)
	require.Len(t, outcome.Suggestions.Projects, 1)
	assert.Equal(t, "個人部落格", outcome.Suggestions.Projects[0].Name)
}

func TestSuggestProjectsDegraded(t *testing.T) {
	raw := "這裡沒有任何JSON"
	mockLLM := &MockLLMModel{mockResponse: raw}
	a := NewStructuredAnalyzer(mockLLM, nil)

	outcome := a.SuggestProjects(context.Background(), []string{"Go"}, nil)
	require.Equal(t, types.ReportDegraded, outcome.Kind)
	assert.Equal(t, raw, outcome.Suggestions.RawText)
	assert.Empty(t, outcome.Suggestions.Projects)
}

func TestNormalizeSkillInput(t *testing.T) {
	assert.Equal(t, []string{"Go", "Redis"}, NormalizeSkillInput("Go, Redis"))
	assert.Equal(t, []string{"Go"}, NormalizeSkillInput([]string{" Go ", ""}))
	assert.Equal(t, []string{"Go", "React"}, NormalizeSkillInput([]interface{}{"Go", "React", 42}))
	assert.Empty(t, NormalizeSkillInput(nil))
}
