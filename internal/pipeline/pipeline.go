package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"resume-insight-go/internal/analyzer"
	"resume-insight-go/internal/constants"
	"resume-insight-go/internal/extractor"
	"resume-insight-go/internal/normalizer"
	"resume-insight-go/internal/tracing"
	"resume-insight-go/internal/types"
	"resume-insight-go/internal/vlm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("resume-insight-go/pipeline")

// StageError 流水线在某一阶段失败，Stage 记录失败动作的名字
// （而非已达成的状态：规范化失败的文档从未进入 normalized 状态）。
// 只有规范化阶段（真正的输入校验）会让流水线整体失败，
// 转录和分析阶段自行降级，不会产生 StageError。
type StageError struct {
	Stage types.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("流水线终止 failed(%s): %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Orchestrator 按 规范化 -> 转录 -> 分析 的顺序驱动一份文档走完流水线，
// 持有每阶段的降级策略，产出统一的结果记录。
// 数据严格向前流动，阶段之间不重试。
type Orchestrator struct {
	normalizer  *normalizer.Normalizer
	textLayer   *extractor.TextLayerExtractor // 可选：PDF文本层捷径
	transcriber vlm.DocumentTranscriber
	analyzer    *analyzer.StructuredAnalyzer
	logger      *log.Logger
}

// Option Orchestrator 的配置选项
type Option func(*Orchestrator)

// WithTextLayerExtractor 启用PDF文本层捷径：有可用文本层的PDF跳过栅格化与视觉转录
func WithTextLayerExtractor(e *extractor.TextLayerExtractor) Option {
	return func(o *Orchestrator) {
		o.textLayer = e
	}
}

// WithPipelineLogger 配置自定义日志记录器
func WithPipelineLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New 创建流水线编排器
func New(nm *normalizer.Normalizer, transcriber vlm.DocumentTranscriber, an *analyzer.StructuredAnalyzer, options ...Option) *Orchestrator {
	o := &Orchestrator{
		normalizer:  nm,
		transcriber: transcriber,
		analyzer:    an,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Run 处理一份已落盘的文档，返回统一的结果记录。
// 同一文件重复提交会完整地重跑流水线，不做基于内容的结果缓存。
func (o *Orchestrator) Run(ctx context.Context, path string) (*types.PipelineResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(attribute.String("document.path", filepath.Base(path)))

	result := &types.PipelineResult{
		ReportID: uuid.NewString(),
		FileName: filepath.Base(path),
		Timings:  make([]types.StageTiming, 0, 3),
	}

	transcript, failed, err := o.transcribe(ctx, path, result)
	if err != nil {
		stageErr := &StageError{Stage: types.StageNormalize, Err: err}
		tracing.RecordError(span, stageErr, tracing.ErrorTypeNormalize)
		return nil, stageErr
	}
	span.SetAttributes(attribute.String("transcript.preview", tracing.SafeTranscript(transcript)))
	result.Transcript = transcript
	result.TranscriptFailed = failed
	if failed {
		// 转录失败时没有可供模型分析的文本，直接给出降级报告，
		// raw_text 携带失败描述
		result.Report = types.ReportOutcome{
			Kind: types.ReportDegraded,
			Report: &types.AnalysisReport{
				Analysis: types.ResumeAnalysis{
					Strengths:      []string{},
					Weaknesses:     []string{},
					OverallComment: constants.DegradedOverallComment,
				},
				JobRecommendations:     []types.JobRecommendation{},
				ProjectRecommendations: []types.ProjectRecommendation{},
				LearningPath:           []types.LearningPathItem{},
				RawText:                transcript,
			},
		}
		result.CompletedAt = time.Now().Unix()
		return result, nil
	}

	analyzeStart := time.Now()
	result.Report = o.analyzer.AnalyzeResume(ctx, transcript)
	o.recordTiming(result, types.StageAnalyzed, analyzeStart)

	result.CompletedAt = time.Now().Unix()
	return result, nil
}

// transcribe 产出转录文本。优先尝试PDF文本层捷径；
// 否则走 规范化 -> 视觉转录。规范化失败（输入校验）中止流水线并返回错误，
// 转录失败降级为哨兵文本，不算流水线错误。
func (o *Orchestrator) transcribe(ctx context.Context, path string, result *types.PipelineResult) (string, bool, error) {
	// PDF文本层捷径
	if o.textLayer != nil {
		fastStart := time.Now()
		if text, err := o.textLayer.ExtractText(ctx, path); err == nil && text != "" {
			o.recordTiming(result, types.StageTranscribed, fastStart)
			o.logger.Printf("[Pipeline] 使用PDF文本层，跳过视觉转录: %s", path)
			return text, false, nil
		}
	}

	normalizeStart := time.Now()
	img, err := o.normalizeStage(ctx, path)
	o.recordTiming(result, types.StageNormalized, normalizeStart)
	if err != nil {
		return "", false, err
	}

	transcribeStart := time.Now()
	text, err := o.transcriber.Transcribe(ctx, img)
	o.recordTiming(result, types.StageTranscribed, transcribeStart)
	// 规范化图像只在本次调用内存活，转录结束后释放
	img.Image = nil
	if err != nil {
		o.logger.Printf("[Pipeline] 转录失败: %v", err)
		return vlm.SentinelText(err), true, nil
	}
	return text, false, nil
}

// normalizeStage 带span的规范化阶段
func (o *Orchestrator) normalizeStage(ctx context.Context, path string) (*normalizer.CanonicalImage, error) {
	_, span := tracer.Start(ctx, "pipeline.normalize")
	defer span.End()

	img, err := o.normalizer.Normalize(path)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeNormalize)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("image.width", img.Width),
		attribute.Int("image.height", img.Height),
	)
	return img, nil
}

func (o *Orchestrator) recordTiming(result *types.PipelineResult, stage types.Stage, start time.Time) {
	result.Timings = append(result.Timings, types.StageTiming{
		Stage:      stage,
		DurationMS: time.Since(start).Milliseconds(),
	})
}
