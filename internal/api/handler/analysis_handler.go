package handler

import (
	"context"
	"fmt"
	"strings"

	"resume-insight-go/internal/analyzer"
	"resume-insight-go/internal/types"
)

// AnalysisHandler 文本分析处理器，处理不涉及文件上传的分析请求
type AnalysisHandler struct {
	analyzer *analyzer.StructuredAnalyzer
}

// NewAnalysisHandler 创建文本分析处理器
func NewAnalysisHandler(an *analyzer.StructuredAnalyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: an}
}

// GapRequest 技能差距分析请求
type GapRequest struct {
	ResumeText string `json:"resume_text"`
	JDText     string `json:"jd_text"`
}

// HandleGapAnalysis 比对履历与JD的技能差距。
// 分析器内部负责降级，本方法只做入参校验。
func (h *AnalysisHandler) HandleGapAnalysis(ctx context.Context, req *GapRequest) (*types.GapReport, error) {
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, fmt.Errorf("resume_text不能为空")
	}
	report := h.analyzer.AnalyzeGap(ctx, req.ResumeText, req.JDText)
	return &report, nil
}

// ProjectsRequest side project建议请求。
// skills和interests接受JSON数组或逗号分隔的字符串。
type ProjectsRequest struct {
	Skills    interface{} `json:"skills"`
	Interests interface{} `json:"interests"`
}

// HandleSuggestProjects 依据技能与兴趣生成side project建议
func (h *AnalysisHandler) HandleSuggestProjects(ctx context.Context, req *ProjectsRequest) (*types.ProjectsOutcome, error) {
	skills := analyzer.NormalizeSkillInput(req.Skills)
	interests := analyzer.NormalizeSkillInput(req.Interests)
	if len(skills) == 0 && len(interests) == 0 {
		return nil, fmt.Errorf("skills和interests至少提供一项")
	}
	outcome := h.analyzer.SuggestProjects(ctx, skills, interests)
	return &outcome, nil
}
